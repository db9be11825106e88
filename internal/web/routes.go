package web

import "strconv"

// Console routes. The table is static; there are no transition guards.
const (
	RootPath       = "/"
	ListPath       = "/users"
	NewPath        = "/users/new"
	detailPattern  = "/users/:id"
	editPattern    = "/users/:id/edit"
	deletePattern  = "/users/:id/delete"
	MetricsPath    = "/metrics"
	deletedNoticeQ = "deleted"
)

func DetailPath(id int64) string {
	return ListPath + "/" + strconv.FormatInt(id, 10)
}

func EditPath(id int64) string {
	return DetailPath(id) + "/edit"
}

func DeletePath(id int64) string {
	return DetailPath(id) + "/delete"
}
