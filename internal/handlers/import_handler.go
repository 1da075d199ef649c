package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"product-importer-service/internal/importer"
	"product-importer-service/internal/models"
	"product-importer-service/internal/progress"
)

type ImportHandler struct {
	runner    *importer.Runner
	tracker   *progress.Tracker
	uploadDir string
	logger    *logrus.Entry
}

func NewImportHandler(runner *importer.Runner, tracker *progress.Tracker, uploadDir string, logger *logrus.Logger) *ImportHandler {
	return &ImportHandler{
		runner:    runner,
		tracker:   tracker,
		uploadDir: uploadDir,
		logger:    logger.WithField("component", "import-handler"),
	}
}

// Upload accepts a CSV file and runs the import through the worker pool.
// The request blocks until the import finishes; clients poll /progress for
// intermediate state from other connections.
// POST /upload
func (h *ImportHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "file is required",
				Field:   "file",
			},
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext != ".csv" && ext != ".txt" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FILE_TYPE",
				Message: "Only .csv and .txt files are supported",
				Field:   "file",
			},
		})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.WithError(err).Error("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}

	taskID := uuid.New().String()
	dest := filepath.Join(h.uploadDir, taskID+".csv")
	if err := c.SaveUploadedFile(fileHeader, dest); err != nil {
		h.logger.WithError(err).Error("Failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}

	processed, err := h.runner.Run(c.Request.Context(), taskID, dest)
	if err != nil {
		// The pipeline has already marked the task failed in the tracker.
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "IMPORT_FAILED",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusAccepted, models.UploadResponse{
		TaskID:  taskID,
		Message: fmt.Sprintf("Import complete: %d rows", processed),
	})
}

// GetProgress reports the latest snapshot for a task. Unknown task ids read
// as a pending snapshot, never as 404.
// GET /progress/:task_id
func (h *ImportHandler) GetProgress(c *gin.Context) {
	snapshot := h.tracker.Get(c.Param("task_id"))
	c.JSON(http.StatusOK, snapshot)
}

// GetImportTemplate returns the import template definition or file
// GET /products/import/template?format=json|csv|xlsx
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := models.ImportFormat(c.DefaultQuery("format", string(models.ImportFormatJSON)))

	template := models.ProductImportTemplate()

	switch format {
	case models.ImportFormatCSV:
		h.generateCSVTemplate(c, template)
	case models.ImportFormatXLSX:
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	// Header row only, no sample data
	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")
	f.SetCellValue("Instructions", "A3", "Rows are matched by SKU, ignoring case: an existing SKU is updated, a new one is created.")
	f.SetCellValue("Instructions", "A4", "Columns left blank keep the stored value on update.")
	f.SetCellValue("Instructions", "A5", "active accepts 0/false/no/n to disable a product; anything else enables it.")

	f.SetCellValue("Instructions", "A7", "Column Definitions:")
	f.SetCellValue("Instructions", "A8", "Column")
	f.SetCellValue("Instructions", "B8", "Description")
	f.SetCellValue("Instructions", "C8", "Required")
	f.SetCellValue("Instructions", "D8", "Type")
	f.SetCellValue("Instructions", "E8", "Example")

	for i, col := range template.Columns {
		row := i + 9
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}
