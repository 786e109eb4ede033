package output

import (
	_ "embed"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed report.schema.json
var reportSchema []byte

// ReportSchema returns the JSON Schema (draft-07) of the JSON report.
func ReportSchema() []byte { return reportSchema }

// ValidateReport checks a JSON document against the report schema. It
// returns one message per violation; a nil slice means the document is
// valid. The error is non-nil only when data is not JSON at all.
func ValidateReport(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(reportSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validating report: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}
	var problems []string
	for _, verr := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
	}
	return problems, nil
}
