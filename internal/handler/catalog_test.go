package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sellora/storefront/internal/query"
	"github.com/sellora/storefront/internal/resource"
)

type fakeStore struct{ records map[string]resource.Record }

func (f *fakeStore) List(context.Context, string, query.Spec, []string) ([]resource.Record, int64, error) {
	return nil, 0, nil
}

func (f *fakeStore) Get(_ context.Context, _ string, id string) (resource.Record, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, resource.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) Create(context.Context, string, resource.Record) error { return nil }

func (f *fakeStore) Update(context.Context, string, string, resource.Record) (resource.Record, error) {
	return nil, nil
}

func (f *fakeStore) Delete(context.Context, string, string) error { return nil }

func TestProductValidate_SalePriceRule(t *testing.T) {
	store := &fakeStore{records: map[string]resource.Record{
		"cat1": {"id": "cat1", "name": "Shoes"},
	}}

	tests := []struct {
		name    string
		rec     resource.Record
		current resource.Record
		wantErr string
	}{
		{
			name: "create with sale below price",
			rec:  resource.Record{"title": "Boots", "price": 100.0, "price_sale": 80.0, "category": "cat1"},
		},
		{
			name:    "create with sale equal to price",
			rec:     resource.Record{"title": "Boots", "price": 100.0, "price_sale": 100.0, "category": "cat1"},
			wantErr: "price_sale must be less than price",
		},
		{
			name:    "create with sale above price",
			rec:     resource.Record{"title": "Boots", "price": 100.0, "price_sale": 120.0, "category": "cat1"},
			wantErr: "price_sale must be less than price",
		},
		{
			name:    "update of sale alone checks the stored price",
			rec:     resource.Record{"price_sale": 150.0},
			current: resource.Record{"id": "p1", "price": 100.0},
			wantErr: "price_sale must be less than price",
		},
		{
			name:    "update of price alone checks the stored sale",
			rec:     resource.Record{"price": 50.0},
			current: resource.Record{"id": "p1", "price": 100.0, "price_sale": 80.0},
			wantErr: "price_sale must be less than price",
		},
		{
			name:    "update of both stays consistent",
			rec:     resource.Record{"price": 50.0, "price_sale": 30.0},
			current: resource.Record{"id": "p1", "price": 100.0, "price_sale": 80.0},
		},
		{
			name:    "negative sale rejected",
			rec:     resource.Record{"price_sale": -1.0},
			current: resource.Record{"id": "p1", "price": 100.0},
			wantErr: "price_sale must be a non-negative number",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ProductDescriptor.Validate(context.Background(), store, tt.rec, tt.current)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
