// auth.go implements Bybit V5's request signing: HMAC-SHA256 over
// timestamp + api_key + recv_window + payload, carried as the
// X-BAPI-* header set. This plays the same role as the teacher's L2
// HMAC auth in internal/exchange/auth.go without the L1 EIP-712 wallet
// layer the teacher needed to bootstrap L2 credentials — Bybit's
// REST API never needs on-chain signing, so that half of the teacher's
// auth.go is dropped rather than adapted (see SPEC_FULL.md DOMAIN STACK,
// dropped go-ethereum).
package exchange

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const recvWindow = "5000"

// signedHeaders builds the X-BAPI-* header set Bybit V5 requires on every
// private REST call: API key, millisecond timestamp, receive window, and
// an HMAC-SHA256 signature over their concatenation with the JSON body.
func (c *BybitClient) signedHeaders(body any) (map[string]string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal signed payload: %w", err)
	}

	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	signature := c.sign(ts, string(payload))

	return map[string]string{
		"X-BAPI-API-KEY":     c.key,
		"X-BAPI-TIMESTAMP":   ts,
		"X-BAPI-RECV-WINDOW": recvWindow,
		"X-BAPI-SIGN":        signature,
	}, nil
}

func (c *BybitClient) sign(timestamp, body string) string {
	prehash := strings.Join([]string{timestamp, c.key, recvWindow, body}, "")
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(prehash))
	return hex.EncodeToString(mac.Sum(nil))
}

// wsAuthSignature signs a WebSocket private-channel auth request: the
// same HMAC construction over "GET/realtime" + expires, per Bybit's V5
// WS auth scheme.
func (c *BybitClient) wsAuthSignature(expires int64) string {
	prehash := fmt.Sprintf("GET/realtime%d", expires)
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(prehash))
	return hex.EncodeToString(mac.Sum(nil))
}
