package services

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/yoockh/nnsurvey/internal/models"
)

const exportTimeLayout = "2006/1/2 15:04:05"

var submissionHeader = []string{
	"Submitted At", "Company Name", "Contact Name", "Position", "Phone", "Email",
	"Company Size", "Industry", "Cooperation Intent", "Project Description", "Attachments",
}

// Exporter renders lists as spreadsheet-friendly CSV: UTF-8 with a BOM and
// every field quoted.
type Exporter struct {
	loc *time.Location
}

// NewExporter renders timestamps in tz, falling back to UTC when tz is
// unknown.
func NewExporter(tz string) *Exporter {
	loc, err := time.LoadLocation(tz)
	if err != nil || tz == "" {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

func (e *Exporter) Submissions(w io.Writer, subs []models.Submission) error {
	cw := newQuotedCSV(w)
	cw.row(submissionHeader...)
	for _, s := range subs {
		cw.row(
			e.stamp(s.SubmittedAt),
			s.CompanyName,
			s.ContactName,
			s.Position,
			s.Phone,
			s.Email,
			s.CompanySize,
			s.Industry,
			s.CooperationIntent,
			s.ProjectDescription,
			strconv.Itoa(len(s.Files)),
		)
	}
	return cw.flush()
}

// Responses writes one column per question, in question order.
func (e *Exporter) Responses(w io.Writer, sv *models.Survey, rs []models.SurveyResponse) error {
	cw := newQuotedCSV(w)

	header := make([]string, 0, len(sv.Questions)+1)
	header = append(header, "Submitted At")
	for _, q := range sv.Questions {
		header = append(header, q.Label)
	}
	cw.row(header...)

	for _, r := range rs {
		rec := make([]string, 0, len(header))
		rec = append(rec, e.stamp(r.SubmittedAt))
		for i := range sv.Questions {
			var cell string
			if i < len(r.Answers) {
				cell = r.Answers[i].Display()
			}
			rec = append(rec, cell)
		}
		cw.row(rec...)
	}
	return cw.flush()
}

func (e *Exporter) stamp(t time.Time) string {
	return t.In(e.loc).Format(exportTimeLayout)
}

// quotedCSV quotes every field, which encoding/csv only does on demand.
type quotedCSV struct {
	w   *bufio.Writer
	err error
}

func newQuotedCSV(w io.Writer) *quotedCSV {
	cw := &quotedCSV{w: bufio.NewWriter(w)}
	_, cw.err = cw.w.WriteString("\ufeff")
	return cw
}

func (c *quotedCSV) row(fields ...string) {
	if c.err != nil {
		return
	}
	for i, f := range fields {
		if i > 0 {
			c.w.WriteByte(',')
		}
		c.w.WriteByte('"')
		c.w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		c.w.WriteByte('"')
	}
	_, c.err = c.w.WriteString("\n")
}

func (c *quotedCSV) flush() error {
	if c.err != nil {
		return c.err
	}
	return c.w.Flush()
}
