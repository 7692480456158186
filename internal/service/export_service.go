package service

import (
	"context"
	"fmt"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/surya-d-naidu/UniOD/internal/logging"
	"github.com/surya-d-naidu/UniOD/internal/metrics"
	"github.com/surya-d-naidu/UniOD/internal/model"
	"github.com/surya-d-naidu/UniOD/internal/repository"
	"github.com/xuri/excelize/v2"
)

// 导出文件信息
const (
	ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ExportFileName    = "OD_SHEET.xlsx"
	WorkbookCreator   = "University OD Tracker"

	exportDateLayout = "02.01.2006"
)

// ReportHeaders 表头
var ReportHeaders = [4]string{"Registration Number", "Name", "Date", "Session"}

// reportMinWidths 各列最小宽度
var reportMinWidths = [4]float64{22, 30, 15, 12}

// ReportRow 表格中的一行
type ReportRow [4]string

// ReportSheet 按日期分组的工作表
type ReportSheet struct {
	Label string
	Rows  []ReportRow
}

// ExportService 报表导出服务
type ExportService interface {
	Export(ctx context.Context, actor *Identity) ([]byte, error)
}

// exportService 报表导出服务实现
type exportService struct {
	repo  repository.OdRequestRepository
	audit AuditLogService
	now   func() time.Time
}

// NewExportService 创建报表导出服务
func NewExportService(repo repository.OdRequestRepository, audit AuditLogService) ExportService {
	return &exportService{repo: repo, audit: audit, now: time.Now}
}

// Export 导出全部 OD 申请为 xlsx
func (s *exportService) Export(ctx context.Context, actor *Identity) ([]byte, error) {
	if !actor.IsAdmin() {
		return nil, Forbidden("Forbidden")
	}

	// 1. 读取申请及申请人
	reqs, err := s.repo.FindAllWithUsers(ctx, nil)
	if err != nil {
		metrics.RecordExport("error")
		return nil, classify(err, "")
	}
	if len(reqs) == 0 {
		metrics.RecordExport("empty")
		return nil, NotFound("No OD requests found to export")
	}

	// 2. 按日期分组
	sheets := BuildReport(reqs)

	// 3. 生成工作簿
	data, err := WriteWorkbook(sheets, s.now())
	if err != nil {
		metrics.RecordExport("error")
		return nil, Internal("Failed to generate report. Please try again.", err)
	}
	metrics.RecordExport("success")

	logging.GetLogger().WithFields(logrus.Fields{
		"admin_id": actor.UserID,
		"requests": len(reqs),
		"sheets":   len(sheets),
		"bytes":    len(data),
	}).Info("od report exported")
	recordAudit(ctx, s.audit, actor.UserID, AuditExport, ResourceReport, ExportFileName, map[string]interface{}{
		"requests": len(reqs),
		"sheets":   len(sheets),
	})
	return data, nil
}

// BuildReport 按日期分组生成表格行,分组顺序与输入顺序一致
// 全天申请拆成 FN 和 AN 两行
func BuildReport(reqs []*model.OdRequestWithUser) []ReportSheet {
	var sheets []ReportSheet
	index := make(map[string]int)

	for _, req := range reqs {
		label := req.Date.UTC().Format(exportDateLayout)
		i, ok := index[label]
		if !ok {
			i = len(sheets)
			index[label] = i
			sheets = append(sheets, ReportSheet{Label: label})
		}

		regNo, name := "Unknown", "Unknown Student"
		if req.User != nil {
			if req.User.RegistrationNumber != "" {
				regNo = req.User.RegistrationNumber
			}
			if req.User.Name != "" {
				name = req.User.Name
			}
		}

		switch req.Session {
		case model.SessionBoth:
			sheets[i].Rows = append(sheets[i].Rows,
				ReportRow{regNo, name, label, string(model.SessionFN)},
				ReportRow{regNo, name, label, string(model.SessionAN)},
			)
		case model.SessionFN, model.SessionAN:
			sheets[i].Rows = append(sheets[i].Rows, ReportRow{regNo, name, label, string(req.Session)})
		default:
			sheets[i].Rows = append(sheets[i].Rows, ReportRow{regNo, name, label, "Unknown"})
		}
	}
	return sheets
}

// ColumnWidths 列宽取最小宽度与最长内容加 2 中的较大值
func ColumnWidths(sheet ReportSheet) [4]float64 {
	var widths [4]float64
	for col := range widths {
		longest := utf8.RuneCountInString(ReportHeaders[col])
		for _, row := range sheet.Rows {
			if n := utf8.RuneCountInString(row[col]); n > longest {
				longest = n
			}
		}
		widths[col] = reportMinWidths[col]
		if w := float64(longest + 2); w > widths[col] {
			widths[col] = w
		}
	}
	return widths
}

// reportStyles 工作簿样式
type reportStyles struct {
	header   int
	text     int
	centered int
}

func newReportStyles(f *excelize.File) (*reportStyles, error) {
	borders := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
		Border:    borders,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	text, err := f.NewStyle(&excelize.Style{
		Border:    borders,
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	centered, err := f.NewStyle(&excelize.Style{
		Border:    borders,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}
	return &reportStyles{header: header, text: text, centered: centered}, nil
}

// WriteWorkbook 将分组结果写成 xlsx
func WriteWorkbook(sheets []ReportSheet, createdAt time.Time) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetDocProps(&excelize.DocProperties{
		Creator: WorkbookCreator,
		Created: createdAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	styles, err := newReportStyles(f)
	if err != nil {
		return nil, fmt.Errorf("create styles: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet.Label); err != nil {
				return nil, fmt.Errorf("rename sheet %s: %w", sheet.Label, err)
			}
		} else if _, err := f.NewSheet(sheet.Label); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", sheet.Label, err)
		}
		if err := writeSheet(f, sheet, styles); err != nil {
			return nil, fmt.Errorf("write sheet %s: %w", sheet.Label, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet ReportSheet, styles *reportStyles) error {
	name := sheet.Label

	// 表头
	header := []interface{}{ReportHeaders[0], ReportHeaders[1], ReportHeaders[2], ReportHeaders[3]}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", "D1", styles.header); err != nil {
		return err
	}
	if err := f.SetRowHeight(name, 1, 20); err != nil {
		return err
	}

	// 数据行
	for i, row := range sheet.Rows {
		rowNum := i + 2
		cell := "A" + strconv.Itoa(rowNum)
		values := []interface{}{row[0], row[1], row[2], row[3]}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			logging.GetLogger().WithFields(logrus.Fields{
				"sheet": name,
				"row":   rowNum,
				"error": err.Error(),
			}).Warn("failed to write report row")
			fallback := []interface{}{"Error", "Error retrieving data", sheet.Label, "Unknown"}
			if err := f.SetSheetRow(name, cell, &fallback); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(name, rowNum, 18); err != nil {
			return err
		}
	}

	if len(sheet.Rows) > 0 {
		last := strconv.Itoa(len(sheet.Rows) + 1)
		if err := f.SetCellStyle(name, "A2", "B"+last, styles.text); err != nil {
			return err
		}
		if err := f.SetCellStyle(name, "C2", "D"+last, styles.centered); err != nil {
			return err
		}
	}

	// 列宽
	for col, width := range ColumnWidths(sheet) {
		letter, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, letter, letter, width); err != nil {
			return err
		}
	}
	return nil
}
