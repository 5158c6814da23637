package handlers

import (
	"net/http"

	"gobridgerelay/redis"
)

func GetFailedRelays(w http.ResponseWriter, r *http.Request) {

	failedRecs, err := redis.FindAllRelayRecordsByStatus("failed")

	if err != nil {
		responseJSON(w, nil, 500)
		return
	}

	responseJSON(w, failedRecs, 200)
}

func GetSuccessRelays(w http.ResponseWriter, r *http.Request) {

	successRecs, err := redis.FindAllRelayRecordsByStatus("success")

	if err != nil {
		responseJSON(w, nil, 500)
		return
	}

	responseJSON(w, successRecs, 200)
}

func GetDuplicateRelays(w http.ResponseWriter, r *http.Request) {

	dupRecs, err := redis.FindAllRelayRecordsByStatus("duplicate")

	if err != nil {
		responseJSON(w, nil, 500)
		return
	}

	responseJSON(w, dupRecs, 200)
}
