package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ormasoftchile/meshcheck/pkg/cache"
	"github.com/ormasoftchile/meshcheck/pkg/history"
	"github.com/ormasoftchile/meshcheck/pkg/logger"
	"github.com/ormasoftchile/meshcheck/pkg/report"
	"github.com/ormasoftchile/meshcheck/pkg/solution"
	"github.com/ormasoftchile/meshcheck/pkg/store"
	"github.com/ormasoftchile/meshcheck/pkg/validate"
)

// ValidateRequest is the body of POST /validate and POST /report.
type ValidateRequest struct {
	Solution      *solution.Solution      `json:"solution"`
	DeployContext *validate.DeployContext `json:"deploy_context,omitempty"`
	// Intelligent findings are merged into level 3 of a report.
	Intelligent []validate.Issue `json:"intelligent,omitempty"`
}

// ReportOutput carries a report and the configured gate verdict.
type ReportOutput struct {
	Gate  string `header:"X-Meshcheck-Gate" doc:"pass or fail against the configured release gate"`
	Cache string `header:"X-Meshcheck-Cache" doc:"hit or miss"`
	Body  *report.Report
}

type handlers struct {
	cfg Config
}

func (h *handlers) options(ctx context.Context, dc *validate.DeployContext) []validate.Option {
	opts := []validate.Option{validate.WithLogger(logger.G(ctx))}
	if dc != nil {
		opts = append(opts, validate.WithDeployContext(dc))
	}
	if len(h.cfg.ReservedRoots) > 0 {
		opts = append(opts, validate.WithReservedMountRoots(h.cfg.ReservedRoots...))
	}
	return opts
}

func (h *handlers) decodeRequest(body []byte) (*ValidateRequest, error) {
	var req ValidateRequest
	if err := decodeJSON(body, &req); err != nil {
		return nil, err
	}
	if req.Solution == nil {
		return nil, badRequest("solution is required", nil)
	}
	return &req, nil
}

func (h *handlers) gate(ctx context.Context, r *report.Report) string {
	pass, err := report.Gate(h.cfg.Gate, r)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("gate evaluation failed")
		return "error"
	}
	if pass {
		return "pass"
	}
	return "fail"
}

func (h *handlers) record(ctx context.Context, r *report.Report, digest string) {
	if h.cfg.History == nil {
		return
	}
	if err := h.cfg.History.Record(ctx, r, digest); err != nil {
		logger.G(ctx).WithError(err).Warn("report not recorded")
	}
}

func registerValidate(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "validate",
		Method:      http.MethodPost,
		Path:        "/validate",
		Summary:     "Validate a solution",
		Description: "Runs the schema and cross-skill checks over the posted solution. Connector checks run when deploy_context is supplied.",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*struct {
		Body *validate.Result
	}, error) {
		req, err := h.decodeRequest(input.RawBody)
		if err != nil {
			return nil, err
		}
		res, err := validate.ValidateSolution(req.Solution, h.options(ctx, req.DeployContext)...)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		return &struct {
			Body *validate.Result
		}{Body: res}, nil
	})
}

func registerReport(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "report",
		Method:      http.MethodPost,
		Path:        "/report",
		Summary:     "Generate a validation report for a posted solution",
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		RawBody []byte
	}) (*ReportOutput, error) {
		req, err := h.decodeRequest(input.RawBody)
		if err != nil {
			return nil, err
		}
		var skills []solution.Skill
		if req.DeployContext != nil {
			skills = req.DeployContext.Skills
		}
		r, err := report.Generate(req.Solution, report.Input{Skills: skills, Intelligent: req.Intelligent},
			h.options(ctx, req.DeployContext)...)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		if req.Solution.ID != "" {
			h.record(ctx, r, "")
		}
		return &ReportOutput{Gate: h.gate(ctx, r), Cache: "miss", Body: r}, nil
	})
}

func registerSolutions(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "list-solutions",
		Method:      http.MethodGet,
		Path:        "/solutions",
		Summary:     "List stored solutions",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []string
	}, error) {
		ids, err := h.cfg.Store.ListSolutions()
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, handleError(ctx, err)
		}
		if ids == nil {
			ids = []string{}
		}
		return &struct {
			Body []string
		}{Body: ids}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "solution-validation-report",
		Method:      http.MethodGet,
		Path:        "/solutions/{id}/validation-report",
		Summary:     "Validation report for a stored solution",
		Description: "Loads the solution and its deploy payload from the store. Reports are cached by a digest of those inputs.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		SolutionID string `path:"id" doc:"Solution id within the store"`
		Refresh    bool   `query:"refresh" doc:"Bypass the report cache"`
	}) (*ReportOutput, error) {
		st := h.cfg.Store
		sol, err := st.LoadSolution(input.SolutionID)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		dc, err := st.DeployContext(ctx, sol)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		digest, err := cache.Digest(sol, dc, h.cfg.ReservedRoots)
		if err != nil {
			return nil, handleError(ctx, err)
		}

		if h.cfg.Cache != nil && !input.Refresh {
			if r, ok := h.cfg.Cache.Get(digest); ok {
				return &ReportOutput{Gate: h.gate(ctx, r), Cache: "hit", Body: r}, nil
			}
		}

		r, err := report.Generate(sol, report.Input{Skills: dc.Skills}, h.options(ctx, dc)...)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		if h.cfg.Cache != nil {
			if err := h.cfg.Cache.Put(digest, r); err != nil {
				logger.G(ctx).WithError(err).Warn("report not cached")
			}
		}
		h.record(ctx, r, digest)
		return &ReportOutput{Gate: h.gate(ctx, r), Cache: "miss", Body: r}, nil
	})
}

func registerHistory(api huma.API, h *handlers) {
	huma.Register(api, huma.Operation{
		OperationID: "solution-history",
		Method:      http.MethodGet,
		Path:        "/solutions/{id}/history",
		Summary:     "Recorded reports for a solution, newest first",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		SolutionID string `path:"id" doc:"Solution id within the store"`
		Limit      int    `query:"limit" minimum:"0" maximum:"500" doc:"Maximum entries (default 20)"`
	}) (*struct {
		Body []history.Entry
	}, error) {
		if h.cfg.History == nil {
			return nil, newAPIError(http.StatusNotFound, "history_disabled", "report history is not enabled", nil)
		}
		entries, err := h.cfg.History.List(ctx, input.SolutionID, input.Limit)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		return &struct {
			Body []history.Entry
		}{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-report",
		Method:      http.MethodGet,
		Path:        "/reports/{report_id}",
		Summary:     "A recorded report",
		Errors:      []int{http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ReportID string `path:"report_id"`
	}) (*struct {
		Body *report.Report
	}, error) {
		if h.cfg.History == nil {
			return nil, newAPIError(http.StatusNotFound, "history_disabled", "report history is not enabled", nil)
		}
		r, err := h.cfg.History.Get(ctx, input.ReportID)
		if err != nil {
			return nil, handleError(ctx, err)
		}
		return &struct {
			Body *report.Report
		}{Body: r}, nil
	})
}
