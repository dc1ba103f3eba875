package model

import "time"

// NotificationCounts は未処理件数。質問データから都度導出され、保存されない。
type NotificationCounts struct {
	NewAnswers       int `json:"newAnswers"`
	PendingQuestions int `json:"pendingQuestions"`
}

// NotificationType は通知種別。
type NotificationType string

// 通知種別
const (
	NotificationQuestionReplied NotificationType = "QUESTION_REPLIED"
	NotificationNewQuestion     NotificationType = "NEW_QUESTION"
)

// Notification はユーザー宛ての通知。
type Notification struct {
	ID         int64            `json:"id"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	QuestionID int64            `json:"questionId,omitempty"`
	AnswerID   int64            `json:"answerId,omitempty"`
	IsRead     bool             `json:"isRead"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// RecentActivity は教員ダッシュボードの最近の活動。
type RecentActivity struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Time        string `json:"time"`
}

// TeacherDashboardStats は教員ダッシュボードの集計値。
type TeacherDashboardStats struct {
	PendingQuestions int              `json:"pendingQuestions"`
	TotalResources   int              `json:"totalResources"`
	TotalAnswers     int              `json:"totalAnswers"`
	RecentActivity   []RecentActivity `json:"recentActivity,omitempty"`
}
