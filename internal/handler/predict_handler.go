// Package handler provides HTTP handlers for the prediction API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/middleware"
	"github.com/Bidon15/summonpredict/internal/models"
	apierrors "github.com/Bidon15/summonpredict/internal/pkg/errors"
	"github.com/Bidon15/summonpredict/internal/pkg/response"
	"github.com/Bidon15/summonpredict/internal/service"
)

// maxBodyBytes bounds prediction request bodies.
const maxBodyBytes = 1 << 20

// PredictHandler handles prediction and registry HTTP requests.
type PredictHandler struct {
	svc      service.PredictionService
	validate *validator.Validate
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(svc service.PredictionService) *PredictHandler {
	return &PredictHandler{
		svc:      svc,
		validate: NewValidator(),
	}
}

// NewValidator returns a validator that reports fields by their JSON name.
// The "address" tag accepts what ethereum.DecodeAddress accepts.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("address", isAddress)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Routes returns a chi router with the v1 routes.
func (h *PredictHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/predict", h.Predict)
	r.Post("/predict/explain", h.Explain)
	r.Get("/implementations", h.Implementations)
	r.Get("/deployments", h.Deployments)
	r.Get("/daos/{address}/tokens", h.Tokens)

	return r
}

// Predict handles POST /v1/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePredict(w, r)
	if !ok {
		middleware.RecordPrediction("rest", apierrors.ErrBadRequest)
		return
	}

	resp, err := h.svc.Predict(r.Context(), req)
	middleware.RecordPrediction("rest", err)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, resp)
}

// Explain handles POST /v1/predict/explain
func (h *PredictHandler) Explain(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodePredict(w, r)
	if !ok {
		return
	}

	resp, err := h.svc.Explain(r.Context(), req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, resp)
}

func (h *PredictHandler) decodePredict(w http.ResponseWriter, r *http.Request) (*models.PredictRequest, bool) {
	var req models.PredictRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return nil, false
	}

	if err := h.validate.Struct(&req); err != nil {
		if fields, ok := ValidationFields(err); ok {
			response.ValidationErrors(w, fields)
			return nil, false
		}
		response.BadRequest(w, err.Error())
		return nil, false
	}
	return &req, true
}

func isAddress(fl validator.FieldLevel) bool {
	_, err := ethereum.DecodeAddress(fl.Field().String())
	return err == nil
}

// ValidationFields flattens validator errors into field name to failed tag.
func ValidationFields(err error) (map[string]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields, true
}

// Implementations handles GET /v1/implementations
func (h *PredictHandler) Implementations(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Implementations(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, resp)
}

// Deployments handles GET /v1/deployments?from_block=N
func (h *PredictHandler) Deployments(w http.ResponseWriter, r *http.Request) {
	var fromBlock uint64
	if s := r.URL.Query().Get("from_block"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			response.ValidationError(w, "from_block", "must be a non-negative integer")
			return
		}
		fromBlock = n
	}

	list, err := h.svc.Deployments(r.Context(), fromBlock)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, list.Deployments, &response.Meta{
		Total:     len(list.Deployments),
		FromBlock: list.FromBlock,
		Source:    list.Source,
	})
}

// Tokens handles GET /v1/daos/{address}/tokens
func (h *PredictHandler) Tokens(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Tokens(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, resp)
}
