package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Bidon15/summonpredict/internal/ethereum"
	"github.com/Bidon15/summonpredict/internal/handler"
	"github.com/Bidon15/summonpredict/internal/middleware"
	"github.com/Bidon15/summonpredict/internal/models"
	"github.com/Bidon15/summonpredict/internal/service"
)

// Method names.
const (
	MethodPredictAddresses = "summon_predictAddresses"
	MethodPredictExplain   = "summon_predictExplain"
	MethodImplementations  = "summon_implementations"
	MethodDeployments      = "summon_deployments"
	MethodDAOTokens        = "summon_daoTokens"
	MethodHealthStatus     = "health_status"
)

// ServerConfig holds the configuration for the JSON-RPC server.
type ServerConfig struct {
	Service service.PredictionService
	Logger  *slog.Logger
}

// Server is the JSON-RPC server with all methods registered.
type Server struct {
	handler  *Handler
	svc      service.PredictionService
	validate *validator.Validate
}

// NewServer creates a JSON-RPC server exposing the prediction service.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		handler:  NewHandler(cfg.Logger),
		svc:      cfg.Service,
		validate: handler.NewValidator(),
	}

	s.handler.RegisterMethod(MethodHealthStatus, s.healthStatus)
	s.handler.RegisterMethod(MethodPredictAddresses, s.predictAddresses)
	s.handler.RegisterMethod(MethodPredictExplain, s.predictExplain)
	s.handler.RegisterMethod(MethodImplementations, s.implementations)
	s.handler.RegisterMethod(MethodDeployments, s.deployments)
	s.handler.RegisterMethod(MethodDAOTokens, s.daoTokens)

	if cfg.Logger != nil {
		cfg.Logger.Info("Registered JSON-RPC methods", slog.Any("methods", s.handler.RegisteredMethods()))
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RegisteredMethods returns a list of registered method names.
func (s *Server) RegisteredMethods() []string {
	return s.handler.RegisteredMethods()
}

func (s *Server) healthStatus(context.Context, json.RawMessage) (any, *Error) {
	return "ok", nil
}

// predictAddresses takes [request] or a bare request object.
func (s *Server) predictAddresses(ctx context.Context, params json.RawMessage) (any, *Error) {
	req, rpcErr := s.predictRequest(params)
	if rpcErr != nil {
		middleware.RecordPrediction("rpc", rpcErr)
		return nil, rpcErr
	}

	resp, err := s.svc.Predict(ctx, req)
	middleware.RecordPrediction("rpc", err)
	if err != nil {
		return nil, FromAPIError(err)
	}
	return resp, nil
}

func (s *Server) predictExplain(ctx context.Context, params json.RawMessage) (any, *Error) {
	req, rpcErr := s.predictRequest(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	resp, err := s.svc.Explain(ctx, req)
	if err != nil {
		return nil, FromAPIError(err)
	}
	return resp, nil
}

func (s *Server) predictRequest(params json.RawMessage) (*models.PredictRequest, *Error) {
	var req models.PredictRequest
	if err := decodeObjectParam(params, &req); err != nil {
		return nil, ErrInvalidParams(err.Error())
	}

	if err := s.validate.Struct(&req); err != nil {
		if fields, ok := handler.ValidationFields(err); ok {
			return nil, NewErrorWithData(ErrCodeInvalidParams, "One or more fields failed validation", fields)
		}
		return nil, ErrInvalidParams(err.Error())
	}
	return &req, nil
}

func (s *Server) implementations(ctx context.Context, _ json.RawMessage) (any, *Error) {
	resp, err := s.svc.Implementations(ctx)
	if err != nil {
		return nil, FromAPIError(err)
	}
	return resp, nil
}

// deployments takes [] or [fromBlock]; fromBlock is a number or a decimal or
// 0x string.
func (s *Server) deployments(ctx context.Context, params json.RawMessage) (any, *Error) {
	args, err := positional(params)
	if err != nil {
		return nil, ErrInvalidParams(err.Error())
	}

	var fromBlock uint64
	if len(args) > 0 {
		if fromBlock, err = decodeBlock(args[0]); err != nil {
			return nil, ErrInvalidParams(fmt.Sprintf("invalid fromBlock: %v", err))
		}
	}

	list, err := s.svc.Deployments(ctx, fromBlock)
	if err != nil {
		return nil, FromAPIError(err)
	}
	return list, nil
}

// daoTokens takes [address].
func (s *Server) daoTokens(ctx context.Context, params json.RawMessage) (any, *Error) {
	args, err := positional(params)
	if err != nil {
		return nil, ErrInvalidParams(err.Error())
	}
	if len(args) < 1 {
		return nil, ErrInvalidParams("summon_daoTokens requires a DAO address parameter")
	}
	var dao string
	if err := json.Unmarshal(args[0], &dao); err != nil {
		return nil, ErrInvalidParams("DAO address must be a string")
	}

	resp, svcErr := s.svc.Tokens(ctx, dao)
	if svcErr != nil {
		return nil, FromAPIError(svcErr)
	}
	return resp, nil
}

func positional(params json.RawMessage) ([]json.RawMessage, error) {
	params = bytes.TrimSpace(params)
	if len(params) == 0 || bytes.Equal(params, []byte("null")) {
		return nil, nil
	}
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, fmt.Errorf("params must be an array: %w", err)
	}
	return args, nil
}

func decodeObjectParam(params json.RawMessage, dst any) error {
	params = bytes.TrimSpace(params)
	if len(params) == 0 {
		return errors.New("missing params")
	}
	if params[0] == '[' {
		args, err := positional(params)
		if err != nil {
			return err
		}
		if len(args) != 1 {
			return fmt.Errorf("expected 1 parameter, got %d", len(args))
		}
		params = args[0]
	}

	dec := json.NewDecoder(bytes.NewReader(params))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	return nil
}

func decodeBlock(raw json.RawMessage) (uint64, error) {
	var n uint64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, errors.New("must be a number or string")
	}
	v, err := ethereum.DecodeUint256(s)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, errors.New("block number overflows uint64")
	}
	return v.Uint64(), nil
}
