package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// SubjectListKey returns the cache key for the catalog's subject list
func (r *CacheKeyStruct) SubjectListKey() string {
	return "catalog:subjects"
}

// QuestionSetKey returns the cache key for a subject's encoded question set
func (r *CacheKeyStruct) QuestionSetKey(subjectID string) string {
	return fmt.Sprintf("catalog:subject:%s:questions", subjectID)
}

var CacheKey = NewCacheKeyStruct()
