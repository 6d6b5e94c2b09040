package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oakline/closedesk/internal/clock"
	projectdomain "github.com/oakline/closedesk/internal/project/domain"
	"github.com/oakline/closedesk/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	projectRepo    repository.Repository[projectdomain.Project]
	financialsRepo repository.Repository[projectdomain.ProjectFinancials]
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) projectdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("project.service"),
		genID: p.GenID,
		clock: p.Clock,

		projectRepo:    repository.ProvideStore[projectdomain.Project](p.DB),
		financialsRepo: repository.ProvideStore[projectdomain.ProjectFinancials](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req projectdomain.CreateProjectRequest) (*projectdomain.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, projectdomain.ErrInvalidName
	}

	project := projectdomain.Project{
		ID:   s.genID.Generate(),
		Name: name,
		City: strings.TrimSpace(req.City),
	}
	if err := s.projectRepo.Create(ctx, &project); err != nil {
		return nil, err
	}
	s.log.Info("project created", zap.String("project_id", project.ID.String()), zap.String("name", name))
	return &project, nil
}

func (s *Service) Get(ctx context.Context, projectID string) (*projectdomain.Project, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, projectdomain.ErrNotFound
	}
	project, err := s.projectRepo.FindOne(ctx, &projectdomain.Project{ID: id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, projectdomain.ErrNotFound
	}
	return project, nil
}

func (s *Service) List(ctx context.Context) ([]projectdomain.Project, error) {
	rows, err := s.projectRepo.Find(ctx, &projectdomain.Project{})
	if err != nil {
		return nil, err
	}
	projects := make([]projectdomain.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, *row)
	}
	return projects, nil
}

func (s *Service) SetFinancials(ctx context.Context, projectID string, req projectdomain.SetFinancialsRequest) (*projectdomain.ProjectFinancials, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, projectdomain.ErrNotFound
	}

	var result *projectdomain.ProjectFinancials
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := s.projectRepo.WithTrx(tx).FindOne(ctx, &projectdomain.Project{ID: id})
		if err != nil {
			return err
		}
		if project == nil {
			return projectdomain.ErrNotFound
		}

		financials, err := s.financialsRepo.WithTrx(tx).FindOne(ctx, &projectdomain.ProjectFinancials{ProjectID: id})
		if err != nil {
			return err
		}
		if financials == nil {
			financials = &projectdomain.ProjectFinancials{
				ID:        s.genID.Generate(),
				ProjectID: id,
			}
		}
		financials.TotalRevenue = req.TotalRevenue
		financials.TotalInvestment = req.TotalInvestment
		financials.MarketingCost = req.MarketingCost
		financials.ProfitAvailable = req.ProfitAvailable
		financials.MaxBuilderCapital = req.MaxBuilderCapital
		financials.UpdatedAt = s.clock.Now()

		if err := s.financialsRepo.WithTrx(tx).Save(ctx, financials); err != nil {
			return err
		}
		result = financials
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) GetFinancials(ctx context.Context, projectID string) (*projectdomain.ProjectFinancials, error) {
	id, err := parseID(projectID)
	if err != nil {
		return nil, projectdomain.ErrNotFound
	}
	financials, err := s.financialsRepo.FindOne(ctx, &projectdomain.ProjectFinancials{ProjectID: id})
	if err != nil {
		return nil, err
	}
	if financials == nil {
		return nil, projectdomain.ErrFinancialsMissing
	}
	return financials, nil
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
