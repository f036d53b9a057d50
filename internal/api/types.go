package api

import "encoding/json"

// TableColumns is one entry of the schema listing.
type TableColumns struct {
	Name    string
	Columns []string
}

// AddRecordRequest is the body of POST /api/add-record. Data is encoded
// with encoding/json; form.Payload is the usual value.
type AddRecordRequest struct {
	Table string `json:"table"`
	Data  any    `json:"data"`
}

// QueryRequest is the body of POST /api/nlq-to-sql.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse is the answer to a question. Result is kept raw because the
// service may send an array of records or any other JSON value.
type QueryResponse struct {
	SQLQuery string          `json:"sql_query"`
	Result   json.RawMessage `json:"result"`
}
