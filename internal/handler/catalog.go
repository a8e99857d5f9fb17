package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellora/storefront/internal/apierr"
	"github.com/sellora/storefront/internal/resource"
)

// Catalog collection descriptors. Validate hooks receive the stored record
// on update (nil on create), so required-on-create rules and cross-field
// rules over a partial body both fall out of the same check.

// CategoryDescriptor describes the categories collection.
var CategoryDescriptor = resource.Descriptor{
	Name:         "category",
	Table:        "categories",
	SlugSource:   "name",
	SearchFields: []string{"name"},
}

// SubcategoryDescriptor describes the subcategories collection. Every
// subcategory must reference an existing category.
var SubcategoryDescriptor = resource.Descriptor{
	Name:         "subcategory",
	Table:        "subcategories",
	SlugSource:   "name",
	SearchFields: []string{"name"},
	Validate: func(ctx context.Context, store resource.Store, rec, current resource.Record) error {
		creating := current == nil
		category, ok := rec["category"].(string)
		if !ok || category == "" {
			if creating {
				return apierr.BadRequest("subcategory requires a category")
			}
			return nil
		}
		if _, err := store.Get(ctx, "categories", category); err != nil {
			return apierr.BadRequest("category %q does not exist", category)
		}
		return nil
	},
}

// BrandDescriptor describes the brands collection.
var BrandDescriptor = resource.Descriptor{
	Name:         "brand",
	Table:        "brands",
	SlugSource:   "name",
	SearchFields: []string{"name"},
}

// ProductDescriptor describes the products collection.
var ProductDescriptor = resource.Descriptor{
	Name:         "product",
	Table:        "products",
	SlugSource:   "title",
	SearchFields: []string{"title", "description"},
	Validate: func(ctx context.Context, store resource.Store, rec, current resource.Record) error {
		creating := current == nil

		if price, ok := rec["price"]; ok {
			if err := validAmount(price); err != nil {
				return err
			}
		} else if creating {
			return apierr.BadRequest("product requires a price")
		}

		if category, ok := rec["category"].(string); ok && category != "" {
			if _, err := store.Get(ctx, "categories", category); err != nil {
				return apierr.BadRequest("category %q does not exist", category)
			}
		} else if creating {
			return apierr.BadRequest("product requires a category")
		}

		return validSalePrice(rec, current)
	},
}

// CouponDescriptor describes the coupons collection. Coupons do not slug;
// their name is the lookup key and must stay verbatim.
var CouponDescriptor = resource.Descriptor{
	Name:         "coupon",
	Table:        "coupons",
	SearchFields: []string{"name"},
	Validate: func(ctx context.Context, store resource.Store, rec, current resource.Record) error {
		creating := current == nil

		if name, ok := rec["name"].(string); creating && (!ok || name == "") {
			return apierr.BadRequest("coupon requires a name")
		}

		if expire, ok := rec["expire"]; ok {
			s, _ := expire.(string)
			if _, err := time.Parse(time.RFC3339, s); err != nil {
				return apierr.BadRequest("expire must be an RFC 3339 timestamp")
			}
		} else if creating {
			return apierr.BadRequest("coupon requires an expire timestamp")
		}

		if discount, ok := rec["discount"]; ok {
			if err := validPercent(discount); err != nil {
				return err
			}
		} else if creating {
			return apierr.BadRequest("coupon requires a discount percentage")
		}
		return nil
	},
}

// validSalePrice enforces price_sale < price over the effective record: a
// partial update falls back to the stored value for whichever of the two
// fields the body omits.
func validSalePrice(rec, current resource.Record) error {
	sale, haveSale := rec["price_sale"]
	price, havePrice := rec["price"]
	if current != nil {
		if !haveSale {
			sale, haveSale = current["price_sale"]
		}
		if !havePrice {
			price, havePrice = current["price"]
		}
	}
	if !haveSale {
		return nil
	}

	sd, err := toDecimal(sale)
	if err != nil || sd.IsNegative() {
		return apierr.BadRequest("price_sale must be a non-negative number")
	}
	if !havePrice {
		return nil
	}
	pd, err := toDecimal(price)
	if err != nil {
		return apierr.BadRequest("price must be a non-negative number")
	}
	if sd.GreaterThanOrEqual(pd) {
		return apierr.BadRequest("price_sale must be less than price")
	}
	return nil
}

func validAmount(v any) error {
	d, err := toDecimal(v)
	if err != nil || d.IsNegative() {
		return apierr.BadRequest("price must be a non-negative number")
	}
	return nil
}

func validPercent(v any) error {
	d, err := toDecimal(v)
	if err != nil || d.IsNegative() || d.GreaterThan(decimal.NewFromInt(100)) {
		return apierr.BadRequest("discount must be between 0 and 100")
	}
	return nil
}

// toDecimal accepts the number shapes JSON decoding can produce.
func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, apierr.BadRequest("not a number")
	}
}
