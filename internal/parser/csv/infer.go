package csv

// inferenceRule is one entry of the inference preference list.
type inferenceRule struct {
	typ   ScalarType
	parse func(string) (any, error)
}

func (r inferenceRule) acceptsAll(samples map[string]struct{}) bool {
	for s := range samples {
		if _, err := r.parse(s); err != nil {
			return false
		}
	}
	return true
}

// inferenceOrder lists candidate types narrowest first. String is not part of
// it; it is the fallback when no rule accepts every sample.
var inferenceOrder = []inferenceRule{
	{TypeBoolean, TypeBoolean.Parser()},
	{TypeByte, TypeByte.Parser()},
	{TypeShort, TypeShort.Parser()},
	{TypeInt, TypeInt.Parser()},
	{TypeLong, TypeLong.Parser()},
	{TypeFloat, TypeFloat.Parser()},
	{TypeDouble, TypeDouble.Parser()},
}

// InferColumn picks the first type of the preference list that parses every
// distinct non-null value. The column is nullable iff any value is nil.
// Without samples, or when nothing numeric or boolean fits, the column is a
// string column. The returned spec has no title.
func InferColumn(values []*string) ColumnSpec {
	nullable := false
	samples := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == nil {
			nullable = true
			continue
		}
		samples[*v] = struct{}{}
	}

	typ := TypeString
	if len(samples) > 0 {
		for _, r := range inferenceOrder {
			if r.acceptsAll(samples) {
				typ = r.typ
				break
			}
		}
	}
	return *NewColumnSpec(typ, "", nullable)
}

// columnValues extracts the cells of column col. Short rows yield nil.
func columnValues(grid [][]*string, col int) []*string {
	out := make([]*string, len(grid))
	for i, row := range grid {
		if col < len(row) {
			out[i] = row[col]
		}
	}
	return out
}
