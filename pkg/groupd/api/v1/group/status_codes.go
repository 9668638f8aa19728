package api_v1_group

import (
	"net/http"
)

var StatusCodes = []int{
	http.StatusOK,
	http.StatusCreated,
	http.StatusNoContent,
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusBadGateway,
	http.StatusInternalServerError,
}
