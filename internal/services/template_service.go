package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/Top-g99/luxe-staycations-sub000/internal/config"
	"github.com/Top-g99/luxe-staycations-sub000/internal/logger"
	"github.com/Top-g99/luxe-staycations-sub000/internal/models"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// System variables are always available to templates and win over payload values.
const (
	VarCurrentDate         = "currentDate"
	VarCurrentTime         = "currentTime"
	VarCurrentYear         = "currentYear"
	VarOrganizationName    = "organizationName"
	VarOrganizationEmail   = "organizationEmail"
	VarOrganizationPhone   = "organizationPhone"
	VarOrganizationWebsite = "organizationWebsite"
)

// Rendered is the output of substituting variables into a template.
type Rendered struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// Missing lists recognized variables the caller did not supply.
	Missing []string `json:"missing,omitempty"`
}

// TemplateService stores notification templates and renders them.
type TemplateService struct {
	db  *gorm.DB
	org config.OrganizationConfig
	now func() time.Time
}

func NewTemplateService(db *gorm.DB, org config.OrganizationConfig) *TemplateService {
	return &TemplateService{db: db, org: org, now: time.Now}
}

// SetClock replaces the clock behind the date and time system variables.
func (s *TemplateService) SetClock(now func() time.Time) {
	s.now = now
}

// Resolve returns the newest active template of the given type.
func (s *TemplateService) Resolve(ctx context.Context, templateType string) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	err := s.db.WithContext(ctx).
		Where("type = ? AND active = ?", templateType, true).
		Order("created_at desc").
		Order("id desc").
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NoTemplateError{Type: templateType}
	}
	if err != nil {
		return nil, fmt.Errorf("resolve template %s: %w", templateType, err)
	}
	return &t, nil
}

// Render substitutes variables into the template's subject and body. It never
// fails: unsupplied recognized variables become empty strings and are logged.
func (s *TemplateService) Render(t *models.NotificationTemplate, vars map[string]string) Rendered {
	out := s.render(t, vars)
	if len(out.Missing) > 0 {
		logger.WithFields(logrus.Fields{
			"template_id":   t.ID,
			"template_type": t.Type,
			"missing":       strings.Join(out.Missing, ","),
		}).Warn("template rendered with missing variables")
	}
	return out
}

// Preview renders without logging; used for authoring feedback.
func (s *TemplateService) Preview(t *models.NotificationTemplate, vars map[string]string) Rendered {
	return s.render(t, vars)
}

func (s *TemplateService) render(t *models.NotificationTemplate, vars map[string]string) Rendered {
	system := s.SystemVariables()
	values := make(map[string]string, len(t.Variables)+len(system))
	var missing []string
	for _, name := range t.Variables {
		v, ok := vars[name]
		if _, isSystem := system[name]; !ok && !isSystem {
			missing = append(missing, name)
		}
		values[name] = v
	}
	for name, v := range system {
		values[name] = v
	}

	replace := func(pattern string) string {
		return placeholderRegex.ReplaceAllStringFunc(pattern, func(m string) string {
			name := placeholderRegex.FindStringSubmatch(m)[1]
			if v, ok := values[name]; ok {
				return v
			}
			return m
		})
	}

	return Rendered{
		Subject: replace(t.Subject),
		Body:    replace(t.Body),
		Missing: missing,
	}
}

// SystemVariables returns the values substituted into every template.
func (s *TemplateService) SystemVariables() map[string]string {
	now := s.now()
	return map[string]string{
		VarCurrentDate:         now.Format("02 Jan 2006"),
		VarCurrentTime:         now.Format("15:04"),
		VarCurrentYear:         strconv.Itoa(now.Year()),
		VarOrganizationName:    s.org.Name,
		VarOrganizationEmail:   s.org.Email,
		VarOrganizationPhone:   s.org.Phone,
		VarOrganizationWebsite: s.org.Website,
	}
}

// Template management

func (s *TemplateService) List(ctx context.Context, templateType string) ([]models.NotificationTemplate, error) {
	var list []models.NotificationTemplate
	q := s.db.WithContext(ctx).Order("created_at desc")
	if templateType != "" {
		q = q.Where("type = ?", templateType)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (s *TemplateService) Get(ctx context.Context, id string) (*models.NotificationTemplate, error) {
	var t models.NotificationTemplate
	if err := s.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TemplateService) Create(ctx context.Context, t *models.NotificationTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(t).Error
}

// Update replaces the editable fields of an existing template.
func (s *TemplateService) Update(ctx context.Context, t *models.NotificationTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	existing, err := s.Get(ctx, t.ID)
	if err != nil {
		return err
	}
	existing.Type = t.Type
	existing.Name = t.Name
	existing.Description = t.Description
	existing.Subject = t.Subject
	existing.Body = t.Body
	existing.Variables = t.Variables
	existing.Active = t.Active
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return err
	}
	*t = *existing
	return nil
}

func (s *TemplateService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.NotificationTemplate{}, "id = ?", id).Error
}

// SeedDefaults inserts the built-in templates for types that have none yet.
func (s *TemplateService) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, t := range DefaultTemplates() {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.NotificationTemplate{}).Where("type = ?", t.Type).Count(&count).Error; err != nil {
			return created, fmt.Errorf("count templates %s: %w", t.Type, err)
		}
		if count > 0 {
			continue
		}
		t := t
		if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
			return created, fmt.Errorf("seed template %s: %w", t.Type, err)
		}
		created++
	}
	return created, nil
}

func validateTemplate(t *models.NotificationTemplate) error {
	if strings.TrimSpace(t.Type) == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Subject) == "" && strings.TrimSpace(t.Body) == "" {
		return fmt.Errorf("%w: subject or body is required", ErrInvalidTemplate)
	}
	return nil
}
