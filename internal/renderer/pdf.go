package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/svsf-edu/enrollment-service/internal/models"
	"github.com/svsf-edu/enrollment-service/internal/repositories"
)

// SlipData is everything the enrollment slip layout needs. The caller has
// already rotated and persisted the verification code it passes in.
type SlipData struct {
	ApplicationID    string
	StudentName      string
	GradeLevel       models.GradeLevel
	Strand           *models.Strand
	Status           models.ApplicationStatus
	CreatedAt        time.Time
	VerificationURL  string
	VerificationCode string
}

// Renderer produces the PDF artifacts. Layout is deterministic: same input,
// same document.
type Renderer struct {
	schoolName    string
	schoolAddress string
}

func New(schoolName, schoolAddress string) *Renderer {
	return &Renderer{
		schoolName:    schoolName,
		schoolAddress: schoolAddress,
	}
}

// EnrollmentSlip renders the verifiable enrollment slip: institutional
// header, student identity block, QR code of the verification URL and the
// printed verification code.
func (r *Renderer) EnrollmentSlip(data SlipData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Institutional header
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(130, 9, r.schoolName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(130, 6, r.schoolAddress, "", 1, "L", false, 0, "")

	// QR code in the top-right corner
	qrPNG, err := qrcode.Encode(data.VerificationURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode verification QR: %w", err)
	}

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verification-qr", 160, 12, 35, 35, false, opts, 0, "")

	pdf.SetXY(160, 48)
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(35, 4, "Scan to verify", "", 1, "C", false, 0, "")
	pdf.SetX(160)
	pdf.CellFormat(35, 4, "Code: "+data.VerificationCode, "", 1, "C", false, 0, "")

	pdf.SetY(40)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(130, 10, "Enrollment Slip", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Student identity block
	pdf.SetFont("Helvetica", "", 12)
	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(45, 8, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		pdf.CellFormat(85, 8, value, "", 1, "L", false, 0, "")
	}

	line("Name:", data.StudentName)
	line("Grade Level:", string(data.GradeLevel))
	if data.Strand != nil {
		line("Strand:", string(*data.Strand))
	}
	line("Application ID:", data.ApplicationID)
	line("Status:", string(data.Status))
	line("Submitted:", data.CreatedAt.Format("January 2, 2006"))

	pdf.Ln(10)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 5, "This is an auto-generated enrollment slip.", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render enrollment slip: %w", err)
	}
	return buf.Bytes(), nil
}

// AdminReport renders the staff summary: application totals broken down by
// status and grade level.
func (r *Renderer) AdminReport(stats *repositories.ApplicationStats, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// Pin the document timestamps and resource ordering so identical stats
	// render identical bytes
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetCatalogSort(true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 9, r.schoolName, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, r.schoolAddress, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Applications Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated "+generatedAt.Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total applications: %d", stats.Total), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// Fixed row order keeps the layout deterministic.
	section := func(title string, labels []string, count func(string) int64) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, label := range labels {
			pdf.CellFormat(70, 7, label, "1", 0, "L", false, 0, "")
			pdf.CellFormat(30, 7, fmt.Sprintf("%d", count(label)), "1", 1, "R", false, 0, "")
		}
		pdf.Ln(4)
	}

	statuses := []string{
		string(models.StatusPending),
		string(models.StatusUnderReview),
		string(models.StatusApproved),
		string(models.StatusEnrolled),
		string(models.StatusRejected),
	}
	section("By status", statuses, func(label string) int64 {
		return stats.ByStatus[models.ApplicationStatus(label)]
	})

	grades := []string{
		string(models.GradeElementary),
		string(models.GradeJuniorHigh),
		string(models.GradeSeniorHigh),
	}
	section("By grade level", grades, func(label string) int64 {
		return stats.ByGradeLevel[models.GradeLevel(label)]
	})

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render admin report: %w", err)
	}
	return buf.Bytes(), nil
}
