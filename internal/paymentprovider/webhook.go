package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Ошибки разбора webhook-уведомлений.
var (
	// ErrInvalidSignature — подпись отсутствует, не совпала или устарела.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent — тело события не разбирается.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// DefaultTolerance — допустимое расхождение метки времени подписи.
const DefaultTolerance = 5 * time.Minute

// ConstructEvent проверяет подпись уведомления по схеме провайдера
// (Stripe-Signature: t=<unix>,v1=<hex hmac-sha256 от "t.body">) и разбирает
// событие. Проверка подписи выполняется до любого чтения полезной нагрузки.
func ConstructEvent(payload []byte, sigHeader, secret string) (*Event, error) {
	return constructEventAt(payload, sigHeader, secret, time.Now(), DefaultTolerance)
}

func constructEventAt(payload []byte, sigHeader, secret string, now time.Time, tolerance time.Duration) (*Event, error) {
	const op = "paymentprovider.ConstructEvent"

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if now.Sub(time.Unix(timestamp, 0)) > tolerance {
		return nil, fmt.Errorf("%s: timestamp outside tolerance: %w", op, ErrInvalidSignature)
	}

	expected := computeSignature(timestamp, payload, secret)
	verified := false
	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			verified = true
			break
		}
	}
	if !verified {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidSignature)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", op, ErrMalformedEvent, err)
	}
	return &event, nil
}

// parseSignatureHeader разбирает заголовок вида "t=1700000000,v1=abc,v1=def".
func parseSignatureHeader(header string) (timestamp int64, signatures [][]byte, err error) {
	if header == "" {
		return 0, nil, ErrInvalidSignature
	}
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return 0, nil, ErrInvalidSignature
		}
		switch key {
		case "t":
			timestamp, err = strconv.ParseInt(value, 10, 64)
			if err != nil {
				return 0, nil, ErrInvalidSignature
			}
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		default:
			// Неизвестные схемы (v0 и пр.) игнорируются.
		}
	}
	if timestamp == 0 || len(signatures) == 0 {
		return 0, nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func computeSignature(timestamp int64, payload []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
