package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OperationLog 변경 요청(POST/PUT/PATCH/DELETE) 감사 로그
type OperationLog struct {
	ID            primitive.ObjectID `json:"_id,omitempty" bson:"_id,omitempty"`
	RequestID     string             `json:"requestId" bson:"requestId"`
	Method        string             `json:"method" bson:"method"`
	Path          string             `json:"path" bson:"path"`
	Route         string             `json:"route" bson:"route"`
	OperatorID    string             `json:"operatorId" bson:"operatorId"`
	OperatorName  string             `json:"operatorName" bson:"operatorName"`
	RequestBody   interface{}        `json:"requestBody" bson:"requestBody"`
	RequestHeader interface{}        `json:"requestHeaders" bson:"requestHeaders"`
	StatusCode    int                `json:"statusCode" bson:"statusCode"`
	Success       bool               `json:"success" bson:"success"`
	ErrorMessage  string             `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
	OperationTime time.Time          `json:"operationTime" bson:"operationTime"`
	ResponseTime  int64              `json:"responseTime" bson:"responseTime"` // 밀리초
	IPAddress     string             `json:"ipAddress" bson:"ipAddress"`
	UserAgent     string             `json:"userAgent" bson:"userAgent"`
}
