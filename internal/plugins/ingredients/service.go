package ingredients

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/metrics"
)

// IngredientService defines the business logic contract for the catalog.
type IngredientService interface {
	// List returns ingredients whose name starts with prefix. Never nil.
	List(ctx context.Context, prefix string) ([]Ingredient, error)
	GetByID(ctx context.Context, id int64) (*Ingredient, error)
	Create(ctx context.Context, req CreateIngredientRequest) (*Ingredient, error)

	// Resolve returns the ingredients for ids keyed by id, failing with a
	// field error on "ingredients" if any id is unknown.
	Resolve(ctx context.Context, ids []int64) (map[int64]Ingredient, error)

	// Import reads "name,measurement_unit" rows from r and inserts the ones
	// not already present. Bad rows are counted and skipped.
	Import(ctx context.Context, r io.Reader) (ImportResult, error)
}

type ingredientService struct {
	repo   IngredientRepository
	logger *slog.Logger
}

// NewIngredientService creates a new IngredientService backed by the given
// repository.
func NewIngredientService(repo IngredientRepository) IngredientService {
	return &ingredientService{repo: repo, logger: slog.Default()}
}

func (s *ingredientService) List(ctx context.Context, prefix string) ([]Ingredient, error) {
	list, err := s.repo.List(ctx, strings.TrimSpace(prefix))
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if list == nil {
		list = []Ingredient{}
	}
	return list, nil
}

func (s *ingredientService) GetByID(ctx context.Context, id int64) (*Ingredient, error) {
	ing, err := s.repo.FindByID(ctx, id)
	if err != nil && !apperror.Is(err, apperror.TypeNotFound) {
		return nil, apperror.NewInternal(err)
	}
	return ing, err
}

func (s *ingredientService) Create(ctx context.Context, req CreateIngredientRequest) (*Ingredient, error) {
	ing := &Ingredient{
		Name:            strings.TrimSpace(req.Name),
		MeasurementUnit: strings.TrimSpace(req.MeasurementUnit),
	}
	if ing.Name == "" {
		return nil, apperror.NewFieldError("name", "This field may not be blank.")
	}
	if ing.MeasurementUnit == "" {
		return nil, apperror.NewFieldError("measurement_unit", "This field may not be blank.")
	}

	if err := s.repo.Create(ctx, ing); err != nil {
		if apperror.Is(err, apperror.TypeValidation) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return ing, nil
}

func (s *ingredientService) Resolve(ctx context.Context, ids []int64) (map[int64]Ingredient, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	byID := make(map[int64]Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID] = ing
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, apperror.NewFieldError("ingredients", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id))
		}
	}
	return byID, nil
}

// Import processes the file row by row. A row failing to parse or insert
// does not abort the run; only a read error on the underlying stream or a
// cancelled context does.
func (s *ingredientService) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	var res ImportResult
	defer func() {
		metrics.RecordIngredientImport(res.Created, res.Duplicates, res.Failed)
	}()

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Failed++
			s.logger.Warn("row import failed", slog.Int("line", parseErr.Line), slog.Any("error", err))
			continue
		}
		if err != nil {
			return res, fmt.Errorf("reading ingredients csv: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if len(record) < 2 {
			res.Failed++
			s.logger.Warn("row import failed", slog.Int("line", line), slog.String("error", "expected name and measurement unit"))
			continue
		}
		name := strings.TrimSpace(record[0])
		unit := strings.TrimSpace(record[1])
		if name == "" || unit == "" {
			res.Failed++
			s.logger.Warn("row import failed", slog.Int("line", line), slog.String("error", "empty name or measurement unit"))
			continue
		}

		if utf8.RuneCountInString(name) > maxFieldLength || utf8.RuneCountInString(unit) > maxFieldLength {
			res.Failed++
			s.logger.Warn("row import failed", slog.Int("line", line),
				slog.String("error", fmt.Sprintf("name or measurement unit longer than %d characters", maxFieldLength)))
			continue
		}

		created, err := s.repo.InsertIfAbsent(ctx, name, unit)
		if err != nil {
			res.Failed++
			s.logger.Warn("row import failed", slog.Int("line", line), slog.Any("error", err))
			continue
		}
		if !created {
			res.Duplicates++
			s.logger.Info("ingredient already exists",
				slog.String("name", name), slog.String("measurement_unit", unit))
			continue
		}
		res.Created++
	}

	s.logger.Info("ingredient import finished",
		slog.Int("created", res.Created),
		slog.Int("duplicates", res.Duplicates),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}
