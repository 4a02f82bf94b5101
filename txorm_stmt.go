package txorm

/*
SELECT statement. Every clause is optional; nil means absent. `Fields`,
`OrderBy`, `GroupBy` and `Tables` accept a single expression or a list. Strings
in `Where`, `OrderBy`, `GroupBy` and `Having` are inserted as raw SQL.

The FROM clause uses `Tables` when set. Otherwise it uses the tables of fields
referenced anywhere in the statement, and otherwise `DefaultTables`. When none
of these exist, the FROM clause is omitted.

`Limit` and `Offset` are omitted when zero. `DistinctOn` renders the Postgres
"DISTINCT ON (...)" form and implies `Distinct`.
*/
type Select struct {
	Fields        any
	Where         any
	Tables        any
	DefaultTables any
	OrderBy       any
	GroupBy       any
	Having        any
	Limit         int64
	Offset        int64
	Distinct      bool
	DistinctOn    any
}

// Column and value for `Insert` and `Update`. Order is preserved.
type Pair struct {
	Col any
	Val any
}

/*
INSERT statement. Columns and values come from `Map`, or from `Columns` and
`Values` when `Map` is empty. `Values` is either an expression such as a
`Select`, or a list of rows, each a list of values. When `Values` is nil, the
values of `Map` form a single row.

The target table is `Table`, otherwise the table of the referenced columns,
otherwise `DefaultTable`.

`PrimaryColumns` and `PrimaryVariables` are not rendered. They carry
information for dialects that report generated keys.
*/
type Insert struct {
	Map              []Pair
	Columns          any
	Values           any
	Table            any
	DefaultTable     any
	PrimaryColumns   any
	PrimaryVariables any
}

/*
UPDATE statement rendering each pair of `Map` as "col=val". Table resolution
follows `Insert`.
*/
type Update struct {
	Map            []Pair
	Where          any
	Table          any
	DefaultTable   any
	PrimaryColumns any
}

// DELETE statement. Table resolution follows `Insert`.
type Delete struct {
	Where        any
	Table        any
	DefaultTable any
}

func (self Insert) columns() any {
	if len(self.Map) == 0 {
		return self.Columns
	}
	out := make([]any, len(self.Map))
	for ind, pair := range self.Map {
		out[ind] = pair.Col
	}
	return out
}

func (self Insert) values() any {
	if self.Values != nil || len(self.Map) == 0 {
		return self.Values
	}
	row := make([]any, len(self.Map))
	for ind, pair := range self.Map {
		row[ind] = pair.Val
	}
	return []any{row}
}
