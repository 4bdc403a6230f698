package mongodb

import (
	"fmt"
	"reflect"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

// NewRegistry returns the default bson registry extended with a
// shopspring/decimal codec.
func NewRegistry() *bsoncodec.Registry {
	codec := decimalCodec{}
	return bson.NewRegistryBuilder().
		RegisterTypeEncoder(decimalType, codec).
		RegisterTypeDecoder(decimalType, codec).
		Build()
}

type decimalCodec struct{}

func (decimalCodec) EncodeValue(_ bsoncodec.EncodeContext, vw bsonrw.ValueWriter, val reflect.Value) error {
	if !val.IsValid() || val.Type() != decimalType {
		return bsoncodec.ValueEncoderError{Name: "decimalCodec.EncodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}
	dec := val.Interface().(decimal.Decimal)
	d128, err := primitive.ParseDecimal128(dec.String())
	if err != nil {
		return fmt.Errorf("failed to convert %s to decimal128: %w", dec.String(), err)
	}
	return vw.WriteDecimal128(d128)
}

func (decimalCodec) DecodeValue(_ bsoncodec.DecodeContext, vr bsonrw.ValueReader, val reflect.Value) error {
	if !val.CanSet() || val.Type() != decimalType {
		return bsoncodec.ValueDecoderError{Name: "decimalCodec.DecodeValue", Types: []reflect.Type{decimalType}, Received: val}
	}

	var (
		dec decimal.Decimal
		err error
	)
	switch vr.Type() {
	case bsontype.Decimal128:
		d128, rerr := vr.ReadDecimal128()
		if rerr != nil {
			return rerr
		}
		dec, err = decimal.NewFromString(d128.String())
	case bsontype.Double:
		f, rerr := vr.ReadDouble()
		if rerr != nil {
			return rerr
		}
		dec = decimal.NewFromFloat(f)
	case bsontype.String:
		s, rerr := vr.ReadString()
		if rerr != nil {
			return rerr
		}
		dec, err = decimal.NewFromString(s)
	case bsontype.Int32:
		i, rerr := vr.ReadInt32()
		if rerr != nil {
			return rerr
		}
		dec = decimal.NewFromInt32(i)
	case bsontype.Int64:
		i, rerr := vr.ReadInt64()
		if rerr != nil {
			return rerr
		}
		dec = decimal.NewFromInt(i)
	case bsontype.Null:
		if rerr := vr.ReadNull(); rerr != nil {
			return rerr
		}
		dec = decimal.Zero
	default:
		return fmt.Errorf("cannot decode %v into a decimal", vr.Type())
	}
	if err != nil {
		return err
	}
	val.Set(reflect.ValueOf(dec))
	return nil
}
