package api

// DataResponse is the {data: T} envelope.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

type PagingInfo struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// Paginated is the {data: [...], total, paging} envelope of list endpoints.
type Paginated[T any] struct {
	Data   []T        `json:"data"`
	Total  int        `json:"total"`
	Paging PagingInfo `json:"paging"`
}

type pushTokenRequest struct {
	FCMToken string `json:"fcmToken"`
}
