package exportsvc

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/xuri/excelize/v2"

	"github.com/miltrack/miltrack/core/stats"
	"github.com/miltrack/miltrack/core/training"
)

const (
	membersSheet   = "Members"
	trainingsSheet = "Trainings"

	// ContentTypeXLSX is the MIME type served with generated workbooks.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	dateLayout = "2006-01-02"
)

type ServiceInterface interface {
	PlatoonWorkbook(detail training.PlatoonDetail) (*bytes.Buffer, error)
}

type xlsxService struct{}

var _ ServiceInterface = (*xlsxService)(nil)

func NewXLSXService() *xlsxService {
	return &xlsxService{}
}

// PlatoonWorkbook renders a platoon's dashboard as a two-sheet workbook:
// the member roster and the per-training aggregates.
func (svc xlsxService) PlatoonWorkbook(detail training.PlatoonDetail) (*bytes.Buffer, error) {
	f := excelize.NewFile()

	f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), membersSheet)
	f.NewSheet(trainingsSheet)
	f.SetActiveSheet(f.GetSheetIndex(membersSheet))

	if err := svc.writeMembers(f, detail.Members); err != nil {
		return nil, err
	}
	if err := svc.writeTrainings(f, detail.Trainings); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "writing workbook")
	}
	return buf, nil
}

func (svc xlsxService) writeMembers(f *excelize.File, members []training.MemberRow) error {
	header := []interface{}{"Name", "Completed", "Assigned", "Completion %", "Average Score", "Status"}
	if err := svc.writeRow(f, membersSheet, 1, header); err != nil {
		return err
	}
	for i, m := range members {
		row := []interface{}{
			m.Name,
			m.CompletedCount,
			m.TotalCount,
			m.CompletionPercent,
			nullIntCell(m.AverageScore),
			string(m.Status),
		}
		if err := svc.writeRow(f, membersSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (svc xlsxService) writeTrainings(f *excelize.File, instStats []stats.InstanceStat) error {
	header := []interface{}{"Training", "Due Date", "Completed", "Members", "Completion %", "Average Score"}
	if err := svc.writeRow(f, trainingsSheet, 1, header); err != nil {
		return err
	}
	for i, st := range instStats {
		percent := 0
		if st.TotalMembers > 0 {
			percent = 100 * st.CompletionCount / st.TotalMembers
		}
		row := []interface{}{
			st.Name,
			st.DueDate.Format(dateLayout),
			st.CompletionCount,
			st.TotalMembers,
			percent,
			nullIntCell(st.AverageScore),
		}
		if err := svc.writeRow(f, trainingsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (svc xlsxService) writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, val := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return errors.Wrap(err, "resolving cell name")
		}
		if err = f.SetCellValue(sheet, cell, val); err != nil {
			return errors.Wrapf(err, "setting cell %s!%s", sheet, cell)
		}
	}
	return nil
}

func nullIntCell(n null.Int) interface{} {
	if n.Valid {
		return n.Int
	}
	return ""
}

// PlatoonFilename derives a safe attachment name from the platoon name.
func PlatoonFilename(platoonName string, now time.Time) string {
	name := strings.ToLower(strings.TrimSpace(platoonName))
	name = strings.ReplaceAll(name, " ", "-")
	return fmt.Sprintf("%s-progress-%s.xlsx", name, now.Format(dateLayout))
}
