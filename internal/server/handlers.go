package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/export"
	"github.com/spigell/hr-gpt/internal/logger"
	"github.com/spigell/hr-gpt/internal/workflow"
	"go.uber.org/zap"
)

const portfolioFieldPrefix = "portfolio_"

type flowRequest struct {
	Flow string `json:"flow"`
}

func (s *Server) session(c *fiber.Ctx) (string, *workflow.Machine, error) {
	id := c.Params("id")
	m, err := s.sessions.Get(id)
	if err != nil {
		return "", nil, fmt.Errorf("session %q: %w", id, err)
	}
	return id, m, nil
}

func (s *Server) respond(c *fiber.Ctx, id string, m *workflow.Machine) error {
	return c.JSON(newSessionResponse(id, m.View()))
}

func (s *Server) createSession(c *fiber.Ctx) error {
	id, m := s.sessions.Create()
	s.logger.Info("session created", zap.String(logger.FieldSession, id))
	return c.Status(fiber.StatusCreated).JSON(newSessionResponse(id, m.View()))
}

func (s *Server) getSession(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}
	return s.respond(c, id, m)
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.sessions.Delete(id); err != nil {
		return fmt.Errorf("session %q: %w", id, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) selectFlow(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}

	var req flowRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	flow, err := workflow.ParseFlow(req.Flow)
	if err != nil {
		return err
	}
	if err := m.SelectFlow(flow); err != nil {
		return err
	}
	return s.respond(c, id, m)
}

// submitIndividual replaces the individual inputs with the form and runs the analysis.
func (s *Server) submitIndividual(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form")
	}

	resume, err := formFile(form, "resume")
	if err != nil {
		return err
	}
	portfolio, err := formFile(form, "portfolio")
	if err != nil {
		return err
	}
	if err := m.SetResume(resume); err != nil {
		return err
	}
	if err := m.SetPortfolio(portfolio); err != nil {
		return err
	}
	if err := setJD(m, form); err != nil {
		return err
	}

	if err := m.SubmitIndividual(c.UserContext()); err != nil {
		return withView(err, m.View())
	}
	return s.respond(c, id, m)
}

// submitBulk replaces the resume selection with the form and runs the first pass.
func (s *Server) submitBulk(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form")
	}

	if err := m.ClearResumes(); err != nil {
		return err
	}
	resumes, err := formFiles(form, "resumes")
	if err != nil {
		return err
	}
	if err := m.AddResumes(resumes...); err != nil {
		return withView(err, m.View())
	}
	if err := setJD(m, form); err != nil {
		return err
	}

	if err := m.SubmitBulk(c.UserContext()); err != nil {
		return withView(err, m.View())
	}
	return s.respond(c, id, m)
}

// submitFinal attaches portfolio_<candidateId> files and runs the second pass.
func (s *Server) submitFinal(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}

	form := &multipart.Form{}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		if form, err = c.MultipartForm(); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "expected multipart form")
		}
	}

	for field, headers := range form.File {
		if !strings.HasPrefix(field, portfolioFieldPrefix) || len(headers) == 0 {
			continue
		}
		candidateID, err := strconv.Atoi(strings.TrimPrefix(field, portfolioFieldPrefix))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("invalid portfolio field %q", field))
		}
		f, err := buffer(headers[0])
		if err != nil {
			return err
		}
		if err := m.SetCandidatePortfolio(candidateID, f); err != nil {
			return err
		}
	}

	if err := m.SubmitFinal(c.UserContext()); err != nil {
		return withView(err, m.View())
	}
	return s.respond(c, id, m)
}

func (s *Server) reset(c *fiber.Ctx) error {
	id, m, err := s.session(c)
	if err != nil {
		return err
	}
	m.Reset()
	return s.respond(c, id, m)
}

func (s *Server) export(c *fiber.Ctx) error {
	_, m, err := s.session(c)
	if err != nil {
		return err
	}
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	data, name, err := m.Export(format)
	if err != nil {
		return err
	}

	c.Attachment(name)
	c.Set(fiber.HeaderContentType, format.ContentType())
	return c.Send(data)
}

func setJD(m *workflow.Machine, form *multipart.Form) error {
	f, err := formFile(form, "jd_file")
	if err != nil {
		return err
	}
	if f != nil {
		return m.SetJDFile(f)
	}
	return m.SetJDText(formValue(form, "jd_text"))
}

// buffer copies an upload into memory; multipart storage does not outlive the request.
func buffer(h *multipart.FileHeader) (document.File, error) {
	upload := &document.MultipartFile{Header: h}
	rc, err := upload.Open()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", document.ErrRead, h.Filename, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", document.ErrRead, h.Filename, err)
	}
	return &document.Bytes{FileName: upload.Name(), Type: upload.MimeType(), Content: data}, nil
}

func formFile(form *multipart.Form, field string) (document.File, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, nil
	}
	return buffer(headers[0])
}

func formFiles(form *multipart.Form, field string) ([]document.File, error) {
	headers := form.File[field]
	files := make([]document.File, 0, len(headers))
	for _, h := range headers {
		f, err := buffer(h)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func formValue(form *multipart.Form, field string) string {
	if values := form.Value[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}
