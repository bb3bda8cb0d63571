package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"stayhub/internal/domain"
)

// Outbound/inbound parameter names of the gateway wire format. The hash
// itself is never part of the signed payload.
const (
	ParamAmount        = "amount"
	ParamCurrency      = "currency"
	ParamOrderID       = "orderId"
	ParamOrderInfo     = "orderInfo"
	ParamOrderType     = "orderType"
	ParamCreatedAt     = "createdAt"
	ParamExpiresAt     = "expiresAt"
	ParamReturnURL     = "returnUrl"
	ParamLocale        = "locale"
	ParamIPAddr        = "ipAddr"
	ParamMerchantCode  = "merchantCode"
	ParamResponseCode  = "responseCode"
	ParamTransactionNo = "transactionNo"
	ParamBankCode      = "bankCode"
	ParamBankTranNo    = "bankTranNo"
	ParamCardType      = "cardType"
	ParamSecureHash    = "secureHash"
)

// ResponseCodeSuccess is the gateway's "payment completed" callback code.
const ResponseCodeSuccess = "00"

const timestampLayout = "20060102150405"

// Gateway builds signed outbound payment URLs and verifies inbound
// callback signatures. Stateless; both directions share one
// canonicalization so a URL we sign always verifies.
type Gateway struct {
	baseURL      string
	merchantCode string
	secret       []byte
	returnURL    string
	currency     string
	locale       string
	orderType    string
}

func NewGateway(baseURL, merchantCode, secret, returnURL, currency, locale, orderType string) *Gateway {
	return &Gateway{
		baseURL:      baseURL,
		merchantCode: merchantCode,
		secret:       []byte(secret),
		returnURL:    returnURL,
		currency:     currency,
		locale:       locale,
		orderType:    orderType,
	}
}

// BuildPaymentURL assembles the explicit outbound parameter set for a
// booking, signs it and appends the hex digest as secureHash. Amount is
// in minor currency units.
func (g *Gateway) BuildPaymentURL(b *domain.Booking, clientIP string) string {
	params := map[string]string{
		ParamMerchantCode: g.merchantCode,
		ParamAmount:       strconv.FormatInt(MinorUnits(b.TotalPrice), 10),
		ParamCurrency:     g.currency,
		ParamOrderID:      strconv.FormatInt(b.ID, 10),
		ParamOrderInfo:    "booking " + strconv.FormatInt(b.ID, 10),
		ParamOrderType:    g.orderType,
		ParamCreatedAt:    time.Now().UTC().Format(timestampLayout),
		ParamExpiresAt:    b.PaymentExpiresAt.UTC().Format(timestampLayout),
		ParamReturnURL:    g.returnURL,
		ParamLocale:       g.locale,
		ParamIPAddr:       clientIP,
	}

	query := canonicalize(params)
	hash := g.sign(query)
	return g.baseURL + "?" + query + "&" + ParamSecureHash + "=" + hash
}

// VerifyCallback recomputes the signature over every inbound parameter
// except secureHash and compares case-insensitively. Any mismatch means
// the callback must be rejected before any state is touched.
func (g *Gateway) VerifyCallback(params map[string]string) error {
	supplied, ok := params[ParamSecureHash]
	if !ok || supplied == "" {
		return ErrInvalidSignature
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if k == ParamSecureHash {
			continue
		}
		signed[k] = v
	}

	if !strings.EqualFold(supplied, g.sign(canonicalize(signed))) {
		return ErrInvalidSignature
	}
	return nil
}

// canonicalize sorts keys ordinally, URL-encodes keys and values and
// joins them as key=value pairs. The ordinal sort is load-bearing: both
// signing and verification must produce the identical string.
func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(url.QueryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(params[k]))
	}
	return sb.String()
}

func (g *Gateway) sign(canonical string) string {
	mac := hmac.New(sha512.New, g.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// MinorUnits converts a price to minor currency units (x100).
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
