package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// uploadField is the multipart field carrying the files.
const uploadField = "file"

func (s *Server) upload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected a multipart form with a file field")
	}
	files := form.File[uploadField]
	if len(files) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no file part")
	}

	uploads := make([]domain.RawDocument, 0, len(files))
	for _, fh := range files {
		if fh.Filename == "" {
			return fiber.NewError(fiber.StatusBadRequest, "no selected file")
		}
		doc, err := readUpload(fh)
		if err != nil {
			return err
		}
		uploads = append(uploads, doc)
	}

	res, err := s.ports.Document.Ingest(c.UserContext(), uploads)
	if err != nil {
		return err
	}
	return c.JSON(newUploadResponse(res))
}

func readUpload(fh *multipart.FileHeader) (domain.RawDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("read upload %s: %w", fh.Filename, err)
	}
	return domain.RawDocument{
		Name:     fh.Filename,
		MIMEType: fh.Header.Get(fiber.HeaderContentType),
		Content:  content,
	}, nil
}

func (s *Server) ask(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	answer, err := s.ports.QA.Ask(c.UserContext(), domain.Query{
		Question: req.Question,
		Context:  req.Context,
		TopK:     req.TopK,
	})
	if err != nil {
		return err
	}
	if answer.Warnings == nil {
		answer.Warnings = []domain.Warning{}
	}
	return c.JSON(answer)
}

func (s *Server) summarize(c *fiber.Ctx) error {
	if s.ports.Summary == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "summaries are not configured")
	}
	var req SummarizeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	if err := validate.Struct(req); err != nil {
		return err
	}

	summary, err := s.ports.Summary.Summarise(c.UserContext(), req.Context, req.MaxSentences)
	if err != nil {
		return err
	}
	return c.JSON(SummarizeResponse{Summary: summary})
}

func (s *Server) health(c *fiber.Ctx) error {
	if s.ports.Health == nil {
		return c.JSON(domain.HealthReport{Ready: true, Oracles: []domain.OracleHealth{}, Session: s.ports.Document.Current()})
	}
	report := s.ports.Health.Check(c.UserContext())
	status := fiber.StatusOK
	if !report.Ready {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(report)
}
