package formatters

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"SupportBot/internal/constants"
	"SupportBot/internal/models"
)

// BuildTicketsWorkbook собирает Excel-отчет по тикетам. Используется и
// командой /export в боте, и экспортом через HTTP API.
func BuildTicketsWorkbook(tickets []models.Ticket) (*excelize.File, error) {
	f := excelize.NewFile()
	sheetName := "Tickets"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("создание листа %s: %w", sheetName, err)
	}
	f.DeleteSheet("Sheet1") // Удаляем стандартный лист / Delete default sheet
	f.SetActiveSheet(index)

	headers := []string{"User ID", "Name", "Username", "Category", "Status", "Messages", "Created At", "Last Updated", "Closed At", "Last Message"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	rowIndex := 2
	for _, t := range tickets {
		status := "closed"
		if t.Active {
			status = "active"
		}
		name := strings.TrimSpace(t.FirstName + " " + t.LastName)
		lastMessage := ""
		if len(t.Messages) > 0 {
			lastMessage = t.Messages[len(t.Messages)-1].Text
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowIndex), t.ChatID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", rowIndex), name)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowIndex), t.Username)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", rowIndex), constants.CategoryDisplayMap[t.Category])
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", rowIndex), status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowIndex), len(t.Messages))
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", rowIndex), t.CreatedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", rowIndex), t.LastUpdated.Format("2006-01-02 15:04:05"))
		if t.ClosedAt != nil {
			f.SetCellValue(sheetName, fmt.Sprintf("I%d", rowIndex), t.ClosedAt.Format("2006-01-02 15:04:05"))
		}
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", rowIndex), lastMessage)
		rowIndex++
	}

	return f, nil
}
