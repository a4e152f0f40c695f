package paymentprovider

import "encoding/json"

// CreateCheckoutSessionRequest — параметры создания Checkout-сессии.
type CreateCheckoutSessionRequest struct {
	PriceID           string // Идентификатор цены фиксированного товара
	Quantity          int    // Количество позиций, всегда 1 для подписки
	SuccessURL        string // Куда провайдер вернёт клиента после оплаты
	CancelURL         string // Куда провайдер вернёт клиента при отмене
	ClientReferenceID string // Имя пользователя, продублированное в сессии
}

// CheckoutSession — ответ провайдера на создание сессии и объект события
// checkout.session.completed.
type CheckoutSession struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
	PaymentStatus     string `json:"payment_status"`
	ClientReferenceID string `json:"client_reference_id"`
}

// Event — webhook-событие провайдера.
type Event struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// apiError — тело ошибки API провайдера.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
