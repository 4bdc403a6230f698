// Package memory is an in-process implementation of the repositories used for
// local development and tests. Transactions are serialized behind one mutex and
// rolled back from a snapshot when the callback fails.
package memory

import (
	"context"
	"sync"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type txKey struct{}

type dataset struct {
	users         map[primitive.ObjectID]models.User
	draws         map[primitive.ObjectID]models.Draw
	prizes        map[primitive.ObjectID]models.Prize
	histories     []models.SpinHistory
	rewards       map[primitive.ObjectID]models.Reward
	redemptions   map[primitive.ObjectID]models.RewardRedemption
	checkIns      []models.DailyCheckIn
	pointTxns     []models.PointTransaction
	notifications []models.Notification
}

func newDataset() *dataset {
	return &dataset{
		users:       map[primitive.ObjectID]models.User{},
		draws:       map[primitive.ObjectID]models.Draw{},
		prizes:      map[primitive.ObjectID]models.Prize{},
		rewards:     map[primitive.ObjectID]models.Reward{},
		redemptions: map[primitive.ObjectID]models.RewardRedemption{},
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		users:         make(map[primitive.ObjectID]models.User, len(d.users)),
		draws:         make(map[primitive.ObjectID]models.Draw, len(d.draws)),
		prizes:        make(map[primitive.ObjectID]models.Prize, len(d.prizes)),
		histories:     append([]models.SpinHistory(nil), d.histories...),
		rewards:       make(map[primitive.ObjectID]models.Reward, len(d.rewards)),
		redemptions:   make(map[primitive.ObjectID]models.RewardRedemption, len(d.redemptions)),
		checkIns:      append([]models.DailyCheckIn(nil), d.checkIns...),
		pointTxns:     append([]models.PointTransaction(nil), d.pointTxns...),
		notifications: append([]models.Notification(nil), d.notifications...),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.draws {
		c.draws[k] = v
	}
	for k, v := range d.prizes {
		c.prizes[k] = v
	}
	for k, v := range d.rewards {
		c.rewards[k] = v
	}
	for k, v := range d.redemptions {
		c.redemptions[k] = v
	}
	return c
}

// Store holds every collection in memory.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

var _ repositories.Transactor = (*Store)(nil)

// WithTransaction runs fn with exclusive access to the store. Nested calls join
// the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// do runs fn against the live dataset, taking the lock unless ctx already
// belongs to a transaction on this store.
func (s *Store) do(ctx context.Context, fn func(d *dataset) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

func intPtr(v int) *int {
	return &v
}

func sameCount(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// resize applies a guarded total change to a total/remaining pair.
func resize(total, remaining **int, from, to *int, used int) error {
	if !sameCount(*total, from) {
		return repositories.ErrGuardFailed
	}
	if to == nil {
		*total, *remaining = nil, nil
		return nil
	}
	*remaining = intPtr(models.ResizedRemaining(*remaining, from, *to, used))
	*total = intPtr(*to)
	return nil
}
