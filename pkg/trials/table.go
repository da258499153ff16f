package trials

// SourceColumns is the fixed column order of fields extracted straight from
// the registry document.
var SourceColumns = []string{
	"NCT ID",
	"URL",
	"Study Type",
	"Official_title",
	"Title",
	"Status",
	"Start Date",
	"Completion Date",
	"Phase",
	"Sponsor",
	"Location",
	"City",
	"Organization Class",
	"Keywords",
	"Brief Summary",
	"Detailed_summary",
	"Intervention Name",
	"Intervention Type",
	"Intervention Description",
	"Gender",
	"Minimum Age",
	"Maximum Age",
	"Conditions",
	"Enrollment",
	"Inclusion Criteria",
	"Exclusion Criteria",
	"Healthy Volunteers",
}

// AgeColumns are appended by normalization.
var AgeColumns = []string{
	"Minimum Age Value",
	"Minimum Age Unit",
	"Maximum Age Value",
	"Maximum Age Unit",
}

// ClassificationColumns are appended by the keyword classification pass,
// one per taxonomy, in this order.
var ClassificationColumns = []string{
	"Condition Grouped",
	"Genetic",
	"Advanced Therapies",
	"Cancer",
	"Enfermedades Raras",
	"Diabetes",
}

// Table is an ordered collection of records sharing the fixed column set.
type Table struct {
	Records []*Record
}

func NewTable(records []*Record) *Table {
	return &Table{Records: records}
}

// Columns returns the full header row: source columns followed by the
// derived age and classification columns.
func (t *Table) Columns() []string {
	cols := make([]string, 0, len(SourceColumns)+len(AgeColumns)+len(ClassificationColumns))
	cols = append(cols, SourceColumns...)
	cols = append(cols, AgeColumns...)
	cols = append(cols, ClassificationColumns...)
	return cols
}

func (t *Table) Len() int {
	return len(t.Records)
}

// Filter returns a new table holding the records for which keep returns
// true. Records are shared, not copied.
func (t *Table) Filter(keep func(*Record) bool) *Table {
	out := make([]*Record, 0, len(t.Records))
	for _, rec := range t.Records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return NewTable(out)
}

// Row renders one record against the table's column order.
func (t *Table) Row(rec *Record) []string {
	cols := t.Columns()
	row := make([]string, len(cols))
	for i, col := range cols {
		row[i] = rec.Value(col)
	}
	return row
}
