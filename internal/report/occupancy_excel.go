package report

import (
	"bytes"
	"fmt"

	"dorm-admin/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	RoomsSheet   = "Rooms"
	SummarySheet = "Summary"
)

// RoomsHeader 房间导出表头
var RoomsHeader = []string{
	"Number",
	"Building",
	"Floor",
	"Type",
	"Capacity",
	"Occupancy",
	"Available",
}

var roomsColumnWidths = []float64{
	12, // Number
	20, // Building
	8,  // Floor
	10, // Type
	10, // Capacity
	12, // Occupancy
	10, // Available
}

// OccupancyWorkbook renders the room list and dashboard figures as xlsx.
// Occupancy is the live resident count; Available is the stored flag.
func OccupancyWorkbook(summary service.DashboardSummary, rooms []service.RoomOccupancy) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(RoomsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	// 删除默认的 Sheet1
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRooms(f, headerStyle, rooms); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeSummary(f, headerStyle, summary); err != nil {
		f.Close()
		return nil, err
	}

	// File must stay open during WriteTo
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRooms(f *excelize.File, headerStyle int, rooms []service.RoomOccupancy) error {
	for col, header := range RoomsHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(RoomsSheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(RoomsSheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(RoomsSheet, name, name, roomsColumnWidths[col]); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, ro := range rooms {
		row := i + 2 // 第1行是表头
		values := []any{
			ro.Room.Number,
			ro.Room.Building,
			ro.Room.Floor,
			string(ro.Room.Type),
			ro.Room.Capacity,
			ro.CurrentOccupancy,
			yesNo(ro.Room.Available),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(RoomsSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}
	}

	// 冻结表头
	if err := f.SetPanes(RoomsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, headerStyle int, summary service.DashboardSummary) error {
	rows := [][]any{
		{"Metric", "Value"},
		{"Total Rooms", summary.TotalRooms},
		{"Available Rooms", summary.AvailableRooms},
		{"Total Residents", summary.TotalResidents},
		{"Occupancy %", summary.OccupancyPercentage},
	}
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SummarySheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i+1, err)
		}
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return f.SetColWidth(SummarySheet, "A", "A", 20)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
