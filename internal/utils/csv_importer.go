package utils

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ArowuTest/loyalty-backend/internal/models"
	"github.com/ArowuTest/loyalty-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ImportResult summarizes a CSV import
type ImportResult struct {
	TotalRows int      `json:"totalRows"`
	Imported  int      `json:"imported"`
	Errors    []string `json:"errors"`
}

// RewardCSVImporter loads merchant reward catalog entries from CSV files
type RewardCSVImporter struct {
	rewardRepo repositories.RewardRepository
}

// NewRewardCSVImporter creates a new RewardCSVImporter
func NewRewardCSVImporter(rewardRepo repositories.RewardRepository) *RewardCSVImporter {
	return &RewardCSVImporter{rewardRepo: rewardRepo}
}

// ImportRewards upserts one reward per row. Rows with an id column update that
// reward; bad rows are reported and skipped.
func (i *RewardCSVImporter) ImportRewards(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Read the header row
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// Map column indices
	cols := rewardColumns{
		id:          findColumnIndex(header, []string{"ID", "Reward ID", "reward_id"}),
		merchant:    findColumnIndex(header, []string{"Merchant ID", "merchant_id", "Merchant"}),
		title:       findColumnIndex(header, []string{"Title", "Name", "Reward"}),
		description: findColumnIndex(header, []string{"Description"}),
		cost:        findColumnIndex(header, []string{"Points Cost", "points_cost", "Cost"}),
		validity:    findColumnIndex(header, []string{"Validity Days", "validity_days", "Validity"}),
		active:      findColumnIndex(header, []string{"Active", "is_active", "Status"}),
		stock:       findColumnIndex(header, []string{"Stock", "Stock Quantity", "stock_quantity"}),
		minRank:     findColumnIndex(header, []string{"Min Rank", "min_rank_required", "Rank"}),
		limit:       findColumnIndex(header, []string{"Limit Per User", "redemption_limit_per_user"}),
	}

	if cols.merchant == -1 || cols.title == -1 {
		return nil, fmt.Errorf("merchant_id and title columns are required")
	}

	result := &ImportResult{Errors: []string{}}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.TotalRows++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}

		reward, err := parseRewardRow(row, cols)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", result.TotalRows, err))
			continue
		}
		if err := i.rewardRepo.Upsert(ctx, reward); err != nil {
			return result, fmt.Errorf("failed to save reward %q: %w", reward.Title, err)
		}
		result.Imported++
	}
	return result, nil
}

type rewardColumns struct {
	id, merchant, title, description, cost, validity, active, stock, minRank, limit int
}

func parseRewardRow(row []string, cols rewardColumns) (*models.Reward, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	reward := &models.Reward{Title: cell(cols.title), Description: cell(cols.description), IsActive: true}
	if reward.Title == "" {
		return nil, fmt.Errorf("title is empty")
	}

	merchantID, err := primitive.ObjectIDFromHex(cell(cols.merchant))
	if err != nil {
		return nil, fmt.Errorf("invalid merchant id %q", cell(cols.merchant))
	}
	reward.MerchantID = merchantID

	if v := cell(cols.id); v != "" {
		if reward.ID, err = primitive.ObjectIDFromHex(v); err != nil {
			return nil, fmt.Errorf("invalid reward id %q", v)
		}
	}
	if v := cell(cols.cost); v != "" {
		if reward.PointsCost, err = strconv.Atoi(v); err != nil || reward.PointsCost < 0 {
			return nil, fmt.Errorf("invalid points cost %q", v)
		}
	}
	if v := cell(cols.validity); v != "" {
		if reward.ValidityDays, err = strconv.Atoi(v); err != nil || reward.ValidityDays < 0 {
			return nil, fmt.Errorf("invalid validity days %q", v)
		}
	}
	if v := strings.ToLower(cell(cols.active)); v != "" {
		reward.IsActive = v == "yes" || v == "true" || v == "1" || v == "y" || v == "active"
	}
	if v := cell(cols.stock); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil || stock < 0 {
			return nil, fmt.Errorf("invalid stock %q", v)
		}
		reward.StockQuantity = &stock
	}
	if v := cell(cols.minRank); v != "" {
		switch rank := strings.ToLower(v); rank {
		case "bronze", "silver", "gold", "platinum":
			reward.MinRank = rank
		default:
			return nil, fmt.Errorf("invalid min rank %q", v)
		}
	}
	if v := cell(cols.limit); v != "" {
		if reward.RedemptionLimitPerUser, err = strconv.Atoi(v); err != nil || reward.RedemptionLimitPerUser < 0 {
			return nil, fmt.Errorf("invalid limit per user %q", v)
		}
	}
	return reward, nil
}

// findColumnIndex finds the index of a column by possible names
func findColumnIndex(header []string, possibleNames []string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range possibleNames {
			if strings.ToLower(name) == h {
				return i
			}
		}
	}
	return -1
}
