// Package replies is the response library: a fixed catalog of candidate
// counterpart replies per conversation surface, each optionally tagged
// with a simulated cost.
//
// Selection is uniform and memoryless; repeats are expected. Catalogs are
// validated when the library is built, so a registered surface can always
// produce a reply.
package replies

import (
	"fmt"
	"sort"

	"github.com/vyaapaar/dashcore/pkg/model"
	"github.com/vyaapaar/dashcore/pkg/random"
)

// CostModel draws the simulated cost of one reply.
type CostModel interface {
	// Draw returns the cost and whether the surface models cost at all.
	Draw(rnd random.Source) (int, bool)
}

// NoCost is used by surfaces that do not price individual replies.
type NoCost struct{}

// Draw implements CostModel.
func (NoCost) Draw(random.Source) (int, bool) { return 0, false }

// RangeCost draws uniformly from [Min, Max].
type RangeCost struct {
	Min, Max int
}

// Draw implements CostModel.
func (c RangeCost) Draw(rnd random.Source) (int, bool) {
	return random.Between(rnd, c.Min, c.Max), true
}

// FlatCost picks one of a fixed set of values.
type FlatCost struct {
	Values []int
}

// Draw implements CostModel.
func (c FlatCost) Draw(rnd random.Source) (int, bool) {
	if len(c.Values) == 0 {
		return 0, false
	}
	return c.Values[rnd.IntN(len(c.Values))], true
}

// Catalog is the candidate set registered for one surface.
type Catalog struct {
	Replies []string
	Cost    CostModel
}

func (c Catalog) validate(surface model.Surface) error {
	if len(c.Replies) == 0 {
		return &model.ConfigurationError{
			Component: "replies",
			Reason:    fmt.Sprintf("surface %q has no candidate replies", surface),
		}
	}
	switch cost := c.Cost.(type) {
	case RangeCost:
		if cost.Min < 0 || cost.Max < cost.Min {
			return &model.ConfigurationError{
				Component: "replies",
				Reason:    fmt.Sprintf("surface %q has invalid cost range [%d, %d]", surface, cost.Min, cost.Max),
			}
		}
	case FlatCost:
		for _, v := range cost.Values {
			if v < 0 {
				return &model.ConfigurationError{
					Component: "replies",
					Reason:    fmt.Sprintf("surface %q has negative flat cost %d", surface, v),
				}
			}
		}
	}
	return nil
}

// Library selects replies. Safe for concurrent use when the random source
// is.
type Library struct {
	rnd      random.Source
	catalogs map[model.Surface]Catalog
}

// New validates catalogs and builds a Library.
func New(rnd random.Source, catalogs map[model.Surface]Catalog) (*Library, error) {
	if len(catalogs) == 0 {
		return nil, &model.ConfigurationError{Component: "replies", Reason: "no surfaces registered"}
	}
	if rnd == nil {
		rnd = random.New(0)
	}
	l := &Library{rnd: rnd, catalogs: make(map[model.Surface]Catalog, len(catalogs))}
	for surface, c := range catalogs {
		if err := c.validate(surface); err != nil {
			return nil, err
		}
		if c.Cost == nil {
			c.Cost = NoCost{}
		}
		c.Replies = append([]string(nil), c.Replies...)
		l.catalogs[surface] = c
	}
	return l, nil
}

// Has reports whether surface has a registered catalog.
func (l *Library) Has(surface model.Surface) bool {
	_, ok := l.catalogs[surface]
	return ok
}

// Surfaces returns the registered surfaces in sorted order.
func (l *Library) Surfaces() []model.Surface {
	out := make([]model.Surface, 0, len(l.catalogs))
	for s := range l.catalogs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Candidates returns a copy of the candidate set for surface.
func (l *Library) Candidates(surface model.Surface) []string {
	return append([]string(nil), l.catalogs[surface].Replies...)
}

// Select draws one reply for surface. Content and cost are drawn
// independently.
func (l *Library) Select(surface model.Surface) (model.Reply, error) {
	c, ok := l.catalogs[surface]
	if !ok {
		return model.Reply{}, &model.ConfigurationError{
			Component: "replies",
			Reason:    fmt.Sprintf("surface %q is not registered", surface),
		}
	}
	r := model.Reply{Content: c.Replies[l.rnd.IntN(len(c.Replies))]}
	if cost, ok := c.Cost.Draw(l.rnd); ok {
		r.Cost = &cost
	}
	return r, nil
}
