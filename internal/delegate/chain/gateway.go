package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// GatewayConfig 网关客户端配置
type GatewayConfig struct {
	Endpoint string
	// JWTSecret 非空时对每个请求附加 Bearer Token
	JWTSecret string
	JWTIssuer string
	Timeout   time.Duration
}

// Gateway 通过 JSON/HTTP 访问节点网关的 Client 实现
type Gateway struct {
	endpoint  string
	jwtSecret []byte
	jwtIssuer string
	client    *http.Client
}

// NewGateway 创建网关客户端
func NewGateway(cfg GatewayConfig) (*Gateway, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("gateway endpoint is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Gateway{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		jwtSecret: []byte(cfg.JWTSecret),
		jwtIssuer: cfg.JWTIssuer,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// 网关报文格式

type authorizationPayload struct {
	Mode             string   `json:"mode"`
	Owner            string   `json:"owner"`
	Program          string   `json:"program"`
	DelegatedAddress string   `json:"delegated_address,omitempty"`
	AllowedActions   []string `json:"allowed_actions,omitempty"`
	DurationSeconds  int64    `json:"duration_seconds"`
	Balance          uint64   `json:"balance,omitempty"`
}

type revocationPayload struct {
	Mode             string `json:"mode"`
	Owner            string `json:"owner"`
	Program          string `json:"program"`
	DelegatedAddress string `json:"delegated_address,omitempty"`
	VoucherID        string `json:"voucher_id,omitempty"`
	Signature        string `json:"signature,omitempty"`
}

type transactionPayload struct {
	Program   string `json:"program"`
	Action    string `json:"action"`
	Payload   string `json:"payload"`
	Nonce     uint64 `json:"nonce"`
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

type receiptResponse struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	TimestampMs int64  `json:"timestamp_ms"`
}

type authorizationResponse struct {
	ID               string   `json:"id"`
	Owner            string   `json:"owner"`
	Program          string   `json:"program"`
	DelegatedAddress string   `json:"delegated_address"`
	AllowedActions   []string `json:"allowed_actions"`
	ExpiresAtMs      int64    `json:"expires_at_ms"`
}

type voucherResponse struct {
	ID               string `json:"id"`
	Owner            string `json:"owner"`
	Program          string `json:"program"`
	DelegatedAddress string `json:"delegated_address"`
	RemainingBalance uint64 `json:"remaining_balance"`
	ExpiresAtMs      int64  `json:"expires_at_ms"`
}

type chainTimeResponse struct {
	TimestampMs int64 `json:"timestamp_ms"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (g *Gateway) SubmitAuthorization(ctx context.Context, req *AuthorizationRequest) (*TxReceipt, error) {
	if req == nil {
		return nil, errors.New("authorization request is nil")
	}

	payload := &authorizationPayload{
		Mode:             req.Mode,
		Owner:            req.Owner,
		Program:          req.Program,
		DelegatedAddress: req.DelegatedAddress,
		AllowedActions:   req.AllowedActions,
		DurationSeconds:  int64(req.Duration / time.Second),
		Balance:          req.Balance,
	}

	var resp receiptResponse
	if err := g.do(ctx, http.MethodPost, "/delegation/authorizations", payload, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to submit authorization")
	}

	return convertReceipt(&resp), nil
}

func (g *Gateway) QueryAuthorization(ctx context.Context, owner, program string) (*AuthorizationRecord, error) {
	path := fmt.Sprintf("/delegation/authorizations?owner=%s&program=%s",
		url.QueryEscape(owner), url.QueryEscape(program))

	var resp authorizationResponse
	found, err := g.doQuery(ctx, path, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query authorization")
	}
	if !found {
		return nil, nil
	}

	return &AuthorizationRecord{
		ID:               resp.ID,
		Owner:            resp.Owner,
		Program:          resp.Program,
		DelegatedAddress: resp.DelegatedAddress,
		AllowedActions:   resp.AllowedActions,
		ExpiresAt:        time.UnixMilli(resp.ExpiresAtMs).UTC(),
	}, nil
}

func (g *Gateway) SubmitRevocation(ctx context.Context, req *RevocationRequest) (*TxReceipt, error) {
	if req == nil {
		return nil, errors.New("revocation request is nil")
	}

	payload := &revocationPayload{
		Mode:             req.Mode,
		Owner:            req.Owner,
		Program:          req.Program,
		DelegatedAddress: req.DelegatedAddress,
		VoucherID:        req.VoucherID,
		Signature:        hex.EncodeToString(req.Signature),
	}

	var resp receiptResponse
	if err := g.do(ctx, http.MethodPost, "/delegation/revocations", payload, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to submit revocation")
	}

	return convertReceipt(&resp), nil
}

func (g *Gateway) QueryVoucherBalance(ctx context.Context, owner, program string) (*VoucherRecord, error) {
	path := fmt.Sprintf("/delegation/vouchers?owner=%s&program=%s",
		url.QueryEscape(owner), url.QueryEscape(program))

	var resp voucherResponse
	found, err := g.doQuery(ctx, path, &resp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query voucher balance")
	}
	if !found {
		return nil, nil
	}

	return &VoucherRecord{
		ID:               resp.ID,
		Owner:            resp.Owner,
		Program:          resp.Program,
		DelegatedAddress: resp.DelegatedAddress,
		RemainingBalance: resp.RemainingBalance,
		ExpiresAt:        time.UnixMilli(resp.ExpiresAtMs).UTC(),
	}, nil
}

func (g *Gateway) SubmitTransaction(ctx context.Context, tx *SignedTransaction) (*TxReceipt, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}

	payload := &transactionPayload{
		Program:   tx.Program,
		Action:    tx.Action,
		Payload:   hex.EncodeToString(tx.Payload),
		Nonce:     tx.Nonce,
		Signer:    tx.Signer,
		Signature: hex.EncodeToString(tx.Signature),
	}

	var resp receiptResponse
	if err := g.do(ctx, http.MethodPost, "/delegation/transactions", payload, &resp); err != nil {
		return nil, errors.Wrap(err, "failed to submit transaction")
	}

	return convertReceipt(&resp), nil
}

func (g *Gateway) ChainTime(ctx context.Context) (time.Time, error) {
	var resp chainTimeResponse
	if err := g.do(ctx, http.MethodGet, "/chain/time", nil, &resp); err != nil {
		return time.Time{}, errors.Wrap(err, "failed to query chain time")
	}
	return time.UnixMilli(resp.TimestampMs).UTC(), nil
}

// do 执行一次请求并解析 JSON 响应；非 2xx 时映射为 RPCError
func (g *Gateway) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.endpoint+path, reader)
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")

	if len(g.jwtSecret) > 0 {
		token, err := g.bearerToken()
		if err != nil {
			return errors.Wrap(err, "failed to mint gateway token")
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return &RPCError{Code: CodeUnavailable, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return g.mapError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

// doQuery 同 do，但将 404 解释为 "记录不存在" 而非错误
func (g *Gateway) doQuery(ctx context.Context, path string, out interface{}) (bool, error) {
	err := g.do(ctx, http.MethodGet, path, nil, out)
	if err != nil {
		if rpcErr, ok := errors.Cause(err).(*RPCError); ok && rpcErr.Code == "not_found" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (g *Gateway) mapError(resp *http.Response) error {
	var wireErr errorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(data, &wireErr); err != nil || wireErr.Code == "" {
		// 无结构化错误体时按状态码归类
		switch resp.StatusCode {
		case http.StatusNotFound:
			wireErr.Code = "not_found"
		case http.StatusUnauthorized, http.StatusForbidden:
			wireErr.Code = CodeUnauthorized
		case http.StatusServiceUnavailable, http.StatusBadGateway:
			wireErr.Code = CodeUnavailable
		default:
			wireErr.Code = CodeRejected
		}
		wireErr.Message = strings.TrimSpace(string(data))
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Str("code", wireErr.Code).
		Msg("Gateway request rejected")

	return &RPCError{Code: wireErr.Code, Message: wireErr.Message}
}

func (g *Gateway) bearerToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    g.jwtIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.jwtSecret)
}

func convertReceipt(resp *receiptResponse) *TxReceipt {
	return &TxReceipt{
		TxHash:      resp.TxHash,
		BlockNumber: resp.BlockNumber,
		Timestamp:   time.UnixMilli(resp.TimestampMs).UTC(),
	}
}
