package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SurveyStatsKey returns the cache key for a survey's aggregated statistics.
func (r *CacheKeyStruct) SurveyStatsKey(surveyID string) string {
	return fmt.Sprintf("survey:%s:stats", surveyID)
}

// SubmitLockKey returns the advisory lock key held while a participant's
// submission transaction runs. Keyed by access token, not survey, so two
// tabs of the same participant contend on the same lock.
func (r *CacheKeyStruct) SubmitLockKey(token string) string {
	return fmt.Sprintf("participant:%s:submit_lock", token)
}

// SurveyMonitorChannel returns the Redis Pub/Sub channel name carrying live
// submission events for a survey.
func (r *CacheKeyStruct) SurveyMonitorChannel(surveyID string) string {
	return fmt.Sprintf("survey:%s:monitor", surveyID)
}

var CacheKey = NewCacheKeyStruct()
