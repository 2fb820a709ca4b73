package model

import (
	"fmt"
	"strings"
)

// Category identifies one homologation catalog (e.g. motorcycles).
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	ID   int64  `json:"id"`
}

// Catalog is an immutable per-request snapshot of one category's elements,
// tiers, inclusions, and warnings. It is fully loaded before any matching or
// classification call and never mutated afterwards.
type Catalog struct {
	elementsByID     map[int64]*Element
	elementsByCode   map[string]*Element
	tiersByID        map[int64]*TariffTier
	tiersByCode      map[string]*TariffTier
	inclusionsByTier map[int64][]TierInclusion
	variantsByParent map[int64][]*Element

	Category   Category
	Elements   []Element
	Tiers      []TariffTier
	Inclusions []TierInclusion
	Warnings   []Warning
}

// NewCatalog builds a snapshot with lookup indexes. All records are validated
// here so consumers never see malformed data.
func NewCatalog(category Category, elements []Element, tiers []TariffTier, inclusions []TierInclusion, warnings []Warning) (*Catalog, error) {
	c := &Catalog{
		Category:   category,
		Elements:   elements,
		Tiers:      tiers,
		Inclusions: inclusions,
		Warnings:   warnings,

		elementsByID:     make(map[int64]*Element, len(elements)),
		elementsByCode:   make(map[string]*Element, len(elements)),
		tiersByID:        make(map[int64]*TariffTier, len(tiers)),
		tiersByCode:      make(map[string]*TariffTier, len(tiers)),
		inclusionsByTier: make(map[int64][]TierInclusion),
		variantsByParent: make(map[int64][]*Element),
	}

	for i := range c.Elements {
		e := &c.Elements[i]
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid element: %w", err)
		}
		if _, dup := c.elementsByCode[strings.ToUpper(e.Code)]; dup {
			return nil, fmt.Errorf("duplicate element code %s", e.Code)
		}
		c.elementsByID[e.ID] = e
		c.elementsByCode[strings.ToUpper(e.Code)] = e
	}

	for i := range c.Elements {
		e := &c.Elements[i]
		if e.ParentElementID != nil {
			if _, ok := c.elementsByID[*e.ParentElementID]; !ok {
				return nil, fmt.Errorf("element %s references unknown parent %d", e.Code, *e.ParentElementID)
			}
			c.variantsByParent[*e.ParentElementID] = append(c.variantsByParent[*e.ParentElementID], e)
		}
	}

	for i := range c.Tiers {
		t := &c.Tiers[i]
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("invalid tier: %w", err)
		}
		if _, dup := c.tiersByCode[strings.ToUpper(t.Code)]; dup {
			return nil, fmt.Errorf("duplicate tier code %s", t.Code)
		}
		c.tiersByID[t.ID] = t
		c.tiersByCode[strings.ToUpper(t.Code)] = t
	}

	for _, inc := range c.Inclusions {
		if err := inc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid inclusion: %w", err)
		}
		if _, ok := c.tiersByID[inc.TierID]; !ok {
			return nil, fmt.Errorf("inclusion %d references unknown tier %d", inc.ID, inc.TierID)
		}
		if inc.ElementID != nil {
			if _, ok := c.elementsByID[*inc.ElementID]; !ok {
				return nil, fmt.Errorf("inclusion %d references unknown element %d", inc.ID, *inc.ElementID)
			}
		}
		c.inclusionsByTier[inc.TierID] = append(c.inclusionsByTier[inc.TierID], inc)
	}

	for i := range c.Warnings {
		if err := c.Warnings[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid warning: %w", err)
		}
	}

	return c, nil
}

// ElementByID looks up an element by its identifier.
func (c *Catalog) ElementByID(id int64) (*Element, bool) {
	e, ok := c.elementsByID[id]
	return e, ok
}

// ElementByCode looks up an element by its code, case-insensitively.
func (c *Catalog) ElementByCode(code string) (*Element, bool) {
	e, ok := c.elementsByCode[strings.ToUpper(strings.TrimSpace(code))]
	return e, ok
}

// VariantsOf returns the variant children of an element, in catalog order.
func (c *Catalog) VariantsOf(elementID int64) []*Element {
	return c.variantsByParent[elementID]
}

// HasVariants reports whether an element is a variant parent. Such elements
// are matchable but can never be priced directly.
func (c *Catalog) HasVariants(elementID int64) bool {
	return len(c.variantsByParent[elementID]) > 0
}

// TierByID looks up a tier by its identifier.
func (c *Catalog) TierByID(id int64) (*TariffTier, bool) {
	t, ok := c.tiersByID[id]
	return t, ok
}

// TierByCode looks up a tier by its code, case-insensitively.
func (c *Catalog) TierByCode(code string) (*TariffTier, bool) {
	t, ok := c.tiersByCode[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// InclusionsOf returns the inclusion edges declared on a tier.
func (c *Catalog) InclusionsOf(tierID int64) []TierInclusion {
	return c.inclusionsByTier[tierID]
}

// ElementCodes returns all element codes in catalog order, variants included.
func (c *Catalog) ElementCodes() []string {
	codes := make([]string, 0, len(c.Elements))
	for i := range c.Elements {
		codes = append(codes, c.Elements[i].Code)
	}
	return codes
}

// TierCodes returns all tier codes in catalog order.
func (c *Catalog) TierCodes() []string {
	codes := make([]string, 0, len(c.Tiers))
	for i := range c.Tiers {
		codes = append(codes, c.Tiers[i].Code)
	}
	return codes
}
