package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/username/leave-planner/internal/calendar"
	"github.com/username/leave-planner/internal/optimizer"
	"github.com/username/leave-planner/internal/plan"
	"github.com/username/leave-planner/internal/planner"
	"github.com/username/leave-planner/pkg/dateutil"
	"go.uber.org/zap"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	service *planner.Service
	logger  *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *planner.Service, logger *zap.Logger) *Handlers {
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, map[string]string{
		"status": "healthy",
		"time":   h.service.Now().UTC().Format(time.RFC3339),
	})
}

type easterResponse struct {
	Year                  int    `json:"year"`
	Easter                string `json:"easter"`
	CleanMonday           string `json:"clean_monday"`
	GoodFriday            string `json:"good_friday"`
	EasterMonday          string `json:"easter_monday"`
	HolySpiritMonday      string `json:"holy_spirit_monday"`
	JulianGregorianOffset int    `json:"julian_gregorian_offset"`
}

// GetEaster handles GET /api/v1/easter/{year}
func (h *Handlers) GetEaster(w http.ResponseWriter, r *http.Request) {
	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}
	if err := calendar.ValidateYear(year); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	WriteSuccess(w, easterResponse{
		Year:                  year,
		Easter:                dateutil.Format(calendar.OrthodoxEaster(year)),
		CleanMonday:           dateutil.Format(calendar.CleanMonday(year)),
		GoodFriday:            dateutil.Format(calendar.GoodFriday(year)),
		EasterMonday:          dateutil.Format(calendar.EasterMonday(year)),
		HolySpiritMonday:      dateutil.Format(calendar.HolySpiritMonday(year)),
		JulianGregorianOffset: calendar.JulianGregorianOffset(year),
	})
}

// GetHolidays handles GET /api/v1/holidays?year=YYYY&holy_spirit=true
func (h *Handlers) GetHolidays(w http.ResponseWriter, r *http.Request) {
	q := h.service.DefaultQuery()

	year, err := queryInt(r, "year", q.Year)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	holySpirit, err := queryBool(r, "holy_spirit", q.IncludeHolySpirit)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	holidays, err := h.service.Holidays(r.Context(), year, holySpirit)
	if err != nil {
		h.handleError(w, err, "Failed to build holidays")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"year":     year,
		"holidays": holidays,
	})
}

type monthResponse struct {
	Year     int                `json:"year"`
	Month    string             `json:"month"`
	WorkDays int                `json:"work_days"`
	Weekends int                `json:"weekends"`
	Holidays int                `json:"holidays"`
	Days     []calendar.DayInfo `json:"days"`
}

// GetCalendar handles GET /api/v1/calendar?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	dateRange, err := queryRange(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	holySpirit, err := queryBool(r, "holy_spirit", h.service.DefaultQuery().IncludeHolySpirit)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	days, err := h.service.Calendar(r.Context(), dateRange, holySpirit)
	if err != nil {
		h.handleError(w, err, "Failed to generate calendar")
		return
	}

	months := []monthResponse{}
	for _, m := range calendar.SummarizeMonths(days) {
		months = append(months, monthResponse{
			Year:     m.Year,
			Month:    m.Month.String(),
			WorkDays: m.WorkDays,
			Weekends: m.Weekends,
			Holidays: m.Holidays,
			Days:     m.Days,
		})
	}

	WriteSuccess(w, map[string]interface{}{
		"range":  dateRange,
		"months": months,
	})
}

type opportunitiesResponse struct {
	Year          int                     `json:"year"`
	Budget        int                     `json:"budget"`
	MaxResults    int                     `json:"max_results"`
	FromToday     bool                    `json:"from_today"`
	HolySpirit    bool                    `json:"holy_spirit"`
	Opportunities []optimizer.Opportunity `json:"opportunities"`
}

// GetOpportunities handles
// GET /api/v1/opportunities?year=&budget=&max=&from_today=&holy_spirit=&lang=
func (h *Handlers) GetOpportunities(w http.ResponseWriter, r *http.Request) {
	q := h.service.DefaultQuery()

	var err error
	if q.Year, err = queryInt(r, "year", q.Year); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if q.Budget, err = queryInt(r, "budget", q.Budget); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if q.MaxResults, err = queryInt(r, "max", q.MaxResults); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if q.FromToday, err = queryBool(r, "from_today", q.FromToday); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if q.IncludeHolySpirit, err = queryBool(r, "holy_spirit", q.IncludeHolySpirit); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if lang := r.URL.Query().Get("lang"); lang != "" {
		q.Language = optimizer.ParseLanguage(lang)
	}

	results, err := h.service.Suggest(r.Context(), q)
	if err != nil {
		h.handleError(w, err, "Failed to find leave opportunities")
		return
	}

	WriteSuccess(w, opportunitiesResponse{
		Year:          q.Year,
		Budget:        q.Budget,
		MaxResults:    q.MaxResults,
		FromToday:     q.FromToday,
		HolySpirit:    q.IncludeHolySpirit,
		Opportunities: results,
	})
}

type planResponse struct {
	Status             string                  `json:"status"`
	Items              []plan.SavedOpportunity `json:"items"`
	Entitlement        int                     `json:"entitlement"`
	TotalLeaveDays     int                     `json:"total_leave_days"`
	RemainingLeaveDays int                     `json:"remaining_leave_days"`
	Pending            *conflictResponse       `json:"pending,omitempty"`
}

type conflictResponse struct {
	Candidate   optimizer.Opportunity `json:"candidate"`
	Conflicting plan.SavedOpportunity `json:"conflicting"`
}

// GetPlan handles GET /api/v1/plan
func (h *Handlers) GetPlan(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.planView())
}

type periodRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Label      string `json:"label"`
	Force      bool   `json:"force"`
	HolySpirit *bool  `json:"holy_spirit"`
}

// AddToPlan handles POST /api/v1/plan
func (h *Handlers) AddToPlan(w http.ResponseWriter, r *http.Request) {
	h.addPeriod(w, r, false)
}

// AddCustomPeriod handles POST /api/v1/plan/custom
func (h *Handlers) AddCustomPeriod(w http.ResponseWriter, r *http.Request) {
	h.addPeriod(w, r, true)
}

func (h *Handlers) addPeriod(w http.ResponseWriter, r *http.Request, isCustom bool) {
	var req periodRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	dateRange, err := parseRange(req.From, req.To)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	defaults := h.service.DefaultQuery()
	holySpirit := defaults.IncludeHolySpirit
	if req.HolySpirit != nil {
		holySpirit = *req.HolySpirit
	}

	candidate, err := h.service.Evaluate(r.Context(), dateRange, holySpirit, defaults.Language)
	if err != nil {
		h.handleError(w, err, "Failed to evaluate period")
		return
	}

	manager := h.service.Manager()
	var saved plan.SavedOpportunity
	switch {
	case req.Force:
		saved = manager.AddIgnoringConflicts(candidate, isCustom, req.Label)
	case isCustom:
		saved, err = manager.AddCustomPeriod(candidate, req.Label)
	default:
		saved, err = manager.AddToPlan(candidate)
	}

	var conflict *plan.ConflictError
	if errors.As(err, &conflict) {
		WriteConflict(w, conflict.Error(), conflictResponse{
			Candidate:   conflict.Candidate,
			Conflicting: conflict.Conflicting,
		})
		return
	}
	if err != nil {
		h.handleError(w, err, "Failed to add to plan")
		return
	}

	if !h.save(w, r) {
		return
	}
	WriteCreated(w, saved)
}

// ForcePending handles POST /api/v1/plan/pending
func (h *Handlers) ForcePending(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Manager().ForceAddToPlan()
	if errors.Is(err, plan.ErrNoPendingConflict) {
		WriteNotFound(w, "No pending conflict")
		return
	}
	if err != nil {
		h.handleError(w, err, "Failed to add pending period")
		return
	}

	if !h.save(w, r) {
		return
	}
	WriteCreated(w, saved)
}

// DismissPending handles DELETE /api/v1/plan/pending
func (h *Handlers) DismissPending(w http.ResponseWriter, r *http.Request) {
	h.service.Manager().DismissConflictWarning()
	WriteSuccess(w, h.planView())
}

// RemoveFromPlan handles DELETE /api/v1/plan/{id}
func (h *Handlers) RemoveFromPlan(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.service.Manager().RemoveFromPlan(id) {
		WriteNotFound(w, fmt.Sprintf("Plan item not found: %s", id))
		return
	}

	if !h.save(w, r) {
		return
	}
	WriteSuccess(w, h.planView())
}

// ClearPlan handles DELETE /api/v1/plan
func (h *Handlers) ClearPlan(w http.ResponseWriter, r *http.Request) {
	h.service.Manager().ClearPlan()

	if !h.save(w, r) {
		return
	}
	WriteSuccess(w, h.planView())
}

type settingsResponse struct {
	Entitlement    int                          `json:"entitlement"`
	Preferences    plan.Preferences             `json:"preferences"`
	CustomHolidays []calendar.CustomHolidaySpec `json:"custom_holidays"`
}

type settingsRequest struct {
	Entitlement    *int                          `json:"entitlement"`
	Preferences    *plan.Preferences             `json:"preferences"`
	CustomHolidays *[]calendar.CustomHolidaySpec `json:"custom_holidays"`
}

// GetSettings handles GET /api/v1/settings
func (h *Handlers) GetSettings(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.settingsView())
}

// UpdateSettings handles PUT /api/v1/settings. Omitted fields are kept.
func (h *Handlers) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if req.Entitlement != nil && *req.Entitlement < 0 {
		WriteBadRequest(w, "entitlement must not be negative")
		return
	}

	manager := h.service.Manager()
	if req.CustomHolidays != nil {
		if err := manager.SetCustomHolidays(*req.CustomHolidays); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}
	if req.Entitlement != nil {
		manager.SetEntitlement(*req.Entitlement)
	}
	if req.Preferences != nil {
		manager.SetPreferences(*req.Preferences)
	}

	if !h.save(w, r) {
		return
	}
	WriteSuccess(w, h.settingsView())
}

func (h *Handlers) planView() planResponse {
	manager := h.service.Manager()
	resp := planResponse{
		Status:             manager.Status().String(),
		Items:              manager.Items(),
		Entitlement:        manager.Entitlement(),
		TotalLeaveDays:     manager.TotalLeaveDays(),
		RemainingLeaveDays: manager.RemainingLeaveDays(),
	}
	if pending, ok := manager.Pending(); ok {
		resp.Pending = &conflictResponse{
			Candidate:   pending.Candidate,
			Conflicting: pending.Conflicting,
		}
	}
	return resp
}

func (h *Handlers) settingsView() settingsResponse {
	manager := h.service.Manager()
	return settingsResponse{
		Entitlement:    manager.Entitlement(),
		Preferences:    manager.Preferences(),
		CustomHolidays: manager.CustomHolidays(),
	}
}

// save persists the plan and reports whether the response may continue
func (h *Handlers) save(w http.ResponseWriter, r *http.Request) bool {
	if err := h.service.Manager().Save(r.Context()); err != nil {
		h.logger.Error("Failed to save plan",
			zap.Error(err),
			zap.String("request_id", r.Header.Get(RequestIDHeader)))
		WriteInternalError(w, "Failed to save plan")
		return false
	}
	return true
}

// handleError maps domain errors to 400 and everything else to 500
func (h *Handlers) handleError(w http.ResponseWriter, err error, message string) {
	var parseErr *calendar.ParseError
	switch {
	case errors.Is(err, calendar.ErrInvalidYear), errors.Is(err, calendar.ErrInvalidRange):
		WriteBadRequest(w, err.Error())
	case errors.As(err, &parseErr):
		WriteBadRequest(w, err.Error())
	default:
		h.logger.Error(message, zap.Error(err))
		WriteInternalError(w, message)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func parseRange(from, to string) (calendar.DateRange, error) {
	if from == "" || to == "" {
		return calendar.DateRange{}, errors.New("both from and to dates are required")
	}

	start, err := dateutil.ParseDate(from)
	if err != nil {
		return calendar.DateRange{}, fmt.Errorf("invalid from date: %s. Use YYYY-MM-DD", from)
	}
	end, err := dateutil.ParseDate(to)
	if err != nil {
		return calendar.DateRange{}, fmt.Errorf("invalid to date: %s. Use YYYY-MM-DD", to)
	}

	dateRange, err := calendar.NewDateRange(start, end)
	if err != nil {
		return calendar.DateRange{}, err
	}
	if err := calendar.CheckSpan(dateRange); err != nil {
		return calendar.DateRange{}, err
	}
	return dateRange, nil
}

func queryRange(r *http.Request) (calendar.DateRange, error) {
	return parseRange(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return n, nil
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %s", key, raw)
	}
	return b, nil
}
