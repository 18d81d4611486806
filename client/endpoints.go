package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"vital_geo/model"
)

func (c *Client) ListProducts(ctx context.Context, productType model.ProductType, featured *bool) ([]model.Product, error) {
	query := url.Values{}
	if productType != "" {
		query.Set("productType", string(productType))
	}
	if featured != nil {
		query.Set("featured", strconv.FormatBool(*featured))
	}
	var resp model.ProductsResponse
	if err := c.getJSON(ctx, "/products", query, &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var resp model.ProductResponse
	err := c.getJSON(ctx, "/products/"+url.PathEscape(id), nil, &resp)
	return resp.Product, err
}

func (c *Client) AuthStatus(ctx context.Context) (model.AuthStatusResponse, error) {
	var resp model.AuthStatusResponse
	err := c.getJSON(ctx, "/auth/status", nil, &resp)
	return resp, err
}

func (c *Client) Login(ctx context.Context, body model.LoginRequestBody) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.postJSON(ctx, "/auth/login", body, &resp)
	return resp, err
}

func (c *Client) Signup(ctx context.Context, body model.SignupRequestBody) (model.AuthResponse, error) {
	var resp model.AuthResponse
	err := c.postJSON(ctx, "/auth/signup", body, &resp)
	return resp, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.postJSON(ctx, "/auth/logout", nil, nil)
}

// CheckSession returns the backend's session debugging payload.
func (c *Client) CheckSession(ctx context.Context) (model.SessionInfo, error) {
	var resp struct {
		Success bool              `json:"success"`
		Session model.SessionInfo `json:"session"`
		Message string            `json:"message"`
	}
	if err := c.getJSON(ctx, "/auth/checksession", nil, &resp); err != nil {
		return model.SessionInfo{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "failed to fetch session info"
		}
		return model.SessionInfo{}, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return resp.Session, nil
}

func (c *Client) PaymentSettings(ctx context.Context) (model.PaymentSettings, error) {
	var resp model.PaymentSettingsResponse
	err := c.getJSON(ctx, "/payment-settings", nil, &resp)
	return resp.Settings, err
}

// PaymentForm is the multipart body of POST /payments.
type PaymentForm struct {
	ProductID      string
	AccountName    string
	TransactionID  string
	ScreenshotName string
	ScreenshotType string
	Screenshot     io.Reader
}

func (c *Client) SubmitPayment(ctx context.Context, form PaymentForm) (model.MessageResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="screenshot"; filename="%s"`, escapeQuotes(form.ScreenshotName)))
	header.Set("Content-Type", form.ScreenshotType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return model.MessageResponse{}, err
	}
	if _, err := io.Copy(part, form.Screenshot); err != nil {
		return model.MessageResponse{}, err
	}

	fields := [][2]string{
		{"accountName", form.AccountName},
		{"transactionId", form.TransactionID},
		{"productId", form.ProductID},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return model.MessageResponse{}, err
		}
	}
	if err := mw.Close(); err != nil {
		return model.MessageResponse{}, err
	}

	var resp model.MessageResponse
	err = c.do(ctx, http.MethodPost, "/payments", nil, &buf, mw.FormDataContentType(), &resp)
	return resp, err
}

func (c *Client) MyTransactions(ctx context.Context) ([]model.Payment, error) {
	var resp model.PaymentsResponse
	if err := c.getJSON(ctx, "/payments/my-transactions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Payments, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
