// Package matching joins the DVL roster against the deduplicated survey,
// partitioning every roster row into matched or missing.
package matching

import (
	"encoding/json"
	"os"

	"github.com/whyumesh/FMV/internal/identity"
	"github.com/whyumesh/FMV/internal/survey"
	"github.com/whyumesh/FMV/internal/table"
)

// Roster (DVL) columns.
const (
	RosterEmailColumn = "Account: Email"
	RosterCodeColumn  = "Customer Code"
)

// Calculator-side column names the survey fields are renamed to. The years
// header carries the literal _x000D_ carriage-return marker Excel left in
// the calculator workbook.
const (
	ColDVLCode             = "DVL Code"
	ColHCPEmail            = "HCP Email"
	ColHCPName             = "HCP Name"
	ColYears               = "Years of experience in the Specialty / Super Specialty?_x000D_\n"
	ColClinical            = survey.ColClinical
	ColLeadership          = survey.ColLeadership
	ColGeographic          = survey.ColGeographic
	ColAcademic            = survey.ColAcademic
	ColEducation           = survey.ColEducation
	ColAdditionalEducation = "Additional Educational Level"
	ColSpecialty           = survey.ColSpecialty
	ColResearch            = survey.ColResearch
	ColPublication         = survey.ColPublication
	ColSpeaking            = survey.ColSpeaking
)

// columnMapping renames survey columns to their calculator equivalents.
// Most names match exactly; the known drifts are the years header and the
// trailing space on Additional Educational Level.
var columnMapping = map[string]string{
	survey.ColName:                ColHCPName,
	survey.ColEmail:               ColHCPEmail,
	survey.ColYears:               ColYears,
	survey.ColClinical:            ColClinical,
	survey.ColLeadership:          ColLeadership,
	survey.ColGeographic:          ColGeographic,
	survey.ColAcademic:            ColAcademic,
	survey.ColEducation:           ColEducation,
	survey.ColAdditionalEducation: ColAdditionalEducation,
	survey.ColSpecialty:           ColSpecialty,
	survey.ColResearch:            ColResearch,
	survey.ColPublication:         ColPublication,
	survey.ColSpeaking:            ColSpeaking,
}

// Record is one roster row joined against the survey. Fields holds the
// calculator-named survey attributes and is nil for misses.
type Record struct {
	DVLCode string    `json:"dvl_code"`
	Email   string    `json:"hcp_email"`
	Fields  table.Row `json:"fields,omitempty"`
}

// Result partitions the roster. Every roster row with an identity lands in
// exactly one of Matched or Missing; rows whose email normalizes to empty
// are excluded from both and only counted.
type Result struct {
	Matched           []Record
	Missing           []Record
	DroppedNoIdentity int
}

// Match joins roster rows against deduplicated survey rows by normalized
// email. Survey emails are expected to be normalized already (Dedupe does
// that); roster emails are normalized here.
func Match(roster, deduped *table.Table) Result {
	byEmail := make(map[string]table.Row, deduped.Len())
	for _, row := range deduped.Rows {
		if email := identity.Normalize(row[survey.ColEmail]); email != "" {
			byEmail[email] = row
		}
	}

	var res Result
	for _, row := range roster.Rows {
		email := identity.Normalize(row[RosterEmailColumn])
		if email == "" {
			res.DroppedNoIdentity++
			continue
		}

		code := row[RosterCodeColumn]
		hit, ok := byEmail[email]
		if !ok {
			res.Missing = append(res.Missing, Record{DVLCode: code, Email: email})
			continue
		}

		fields := make(table.Row, len(columnMapping))
		for from, to := range columnMapping {
			if v, ok := hit[from]; ok {
				fields[to] = v
			}
		}
		fields[ColHCPEmail] = email
		res.Matched = append(res.Matched, Record{DVLCode: code, Email: email, Fields: fields})
	}

	return res
}

// MissingTable renders the missing partition as a writable table. Headers
// are emitted even when there are no misses.
func (r Result) MissingTable() *table.Table {
	t := table.New([]string{ColDVLCode, ColHCPEmail})
	for _, m := range r.Missing {
		t.Append(table.Row{ColDVLCode: m.DVLCode, ColHCPEmail: m.Email})
	}
	return t
}

// DumpMatchedToTmpFile writes the matched partition to a temporary JSON file
// for eyeballing before a save is confirmed.
func (r Result) DumpMatchedToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "matched_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.Matched); err != nil {
		return "", err
	}
	return file.Name(), nil
}
