package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/albertaspsc/mruhacks2025-api/functions/gateway/helpers"
	internal_types "github.com/albertaspsc/mruhacks2025-api/functions/gateway/types"
)

type LookupService struct{}

func NewLookupService() internal_types.LookupServiceInterface {
	return &LookupService{}
}

// GetFormOptions reads all six lookup tables, issued in batches of
// LOOKUP_BATCH_SIZE to bound concurrent load on the pool. Any single failure
// fails the whole batch with a combined error so the form never renders half
// its dropdowns.
func (s *LookupService) GetFormOptions(ctx context.Context, db *gorm.DB) (*internal_types.FormOptions, error) {
	options := &internal_types.FormOptions{}

	reads := []struct {
		name string
		fn   func() error
	}{
		{"genders", func() error { return readOptions(ctx, db, &internal_types.Gender{}, &options.Genders) }},
		{"universities", func() error { return readOptions(ctx, db, &internal_types.University{}, &options.Universities) }},
		{"majors", func() error { return readOptions(ctx, db, &internal_types.Major{}, &options.Majors) }},
		{"interests", func() error { return readOptions(ctx, db, &internal_types.Interest{}, &options.Interests) }},
		{"dietary restrictions", func() error { return readOptions(ctx, db, &internal_types.DietaryRestriction{}, &options.DietaryRestrictions) }},
		{"marketing types", func() error { return readOptions(ctx, db, &internal_types.MarketingType{}, &options.MarketingTypes) }},
	}

	var failures []string
	var mu sync.Mutex

	for i := 0; i < len(reads); i += helpers.LOOKUP_BATCH_SIZE {
		end := i + helpers.LOOKUP_BATCH_SIZE
		if end > len(reads) {
			end = len(reads)
		}

		var wg sync.WaitGroup
		for _, read := range reads[i:end] {
			wg.Add(1)
			go func(name string, fn func() error) {
				defer wg.Done()
				if err := fn(); err != nil {
					mu.Lock()
					failures = append(failures, fmt.Sprintf("%s: %v", name, err))
					mu.Unlock()
				}
			}(read.name, read.fn)
		}
		wg.Wait()
	}

	if len(failures) > 0 {
		return nil, fmt.Errorf("failed to load form options: %s", strings.Join(failures, "; "))
	}
	return options, nil
}

func readOptions(ctx context.Context, db *gorm.DB, model interface{}, dest *[]internal_types.Option) error {
	return db.WithContext(ctx).Model(model).Order("id").Find(dest).Error
}

type MockLookupService struct {
	GetFormOptionsFunc func(ctx context.Context, db *gorm.DB) (*internal_types.FormOptions, error)
}

func (m *MockLookupService) GetFormOptions(ctx context.Context, db *gorm.DB) (*internal_types.FormOptions, error) {
	return m.GetFormOptionsFunc(ctx, db)
}
