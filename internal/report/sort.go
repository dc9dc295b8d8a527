package report

import (
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// MultiKeySort orders rows by a list of field ids, first key primary.
// A "-" prefix sorts that key descending. The sort is stable: rows
// tied on every key keep their input order.
func MultiKeySort(rows []map[string]any, keys []string) {
	type sortKey struct {
		id   string
		desc bool
	}

	parsed := make([]sortKey, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if strings.HasPrefix(k, "-") {
			parsed = append(parsed, sortKey{id: strings.TrimSpace(k[1:]), desc: true})
			continue
		}
		parsed = append(parsed, sortKey{id: k})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range parsed {
			c := compareValues(rows[i][key.id], rows[j][key.id])
			if c == 0 {
				continue
			}
			if key.desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues imposes a total order across the value kinds a row can
// hold: nil sorts before everything, then booleans, numbers, strings.
// Within a kind the natural order applies.
func compareValues(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}

	switch ra {
	case rankNil:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		if ab == bb {
			return 0
		}
		if !ab {
			return -1
		}
		return 1
	case rankNumber:
		af, _ := cast.ToFloat64E(a)
		bf, _ := cast.ToFloat64E(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	default:
		return strings.Compare(cast.ToString(a), cast.ToString(b))
	}
}

const (
	rankNil = iota
	rankBool
	rankNumber
	rankString
)

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return rankNil
	case bool:
		return rankBool
	case float64, float32, int, int32, int64, uint, uint32, uint64:
		return rankNumber
	default:
		return rankString
	}
}
