package simulated

import (
	"time"

	"github.com/hitoshi/eduqa/internal/model"
)

// FixturePassword はフィクスチャユーザー共通のパスワード。
const FixturePassword = "password123"

// フィクスチャのユーザーID
const (
	FixtureStudentID int64 = 1
	FixtureTeacherID int64 = 2
	FixtureAdminID   int64 = 3
)

// seed はデモ用のフィクスチャデータを構築する。
// 採番カウンタは各エンティティの最大IDで初期化する。
func seed(now time.Time, hash func(string) ([]byte, error)) (*dataset, error) {
	pw, err := hash(FixturePassword)
	if err != nil {
		return nil, err
	}
	yesterday := now.Add(-24 * time.Hour)

	d := &dataset{
		users: []*userRecord{
			{
				profile: model.UserProfile{
					ID: FixtureStudentID, Username: "student01", Email: "student01@campus.edu",
					FullName: "Alice Student", Department: "Computer Science",
					Roles: []model.Role{model.RoleStudent},
				},
				passwordHash: pw,
				status:       model.UserStatusActive,
				schoolID:     "S2024001",
				courseIDs:    []int64{101},
				createdAt:    now,
			},
			{
				profile: model.UserProfile{
					ID: FixtureTeacherID, Username: "teacher01", Email: "teacher01@campus.edu",
					FullName: "Bob Teacher", Department: "Mathematics",
					Roles: []model.Role{model.RoleTeacher},
				},
				passwordHash: pw,
				status:       model.UserStatusActive,
				title:        "教授",
				bio:          "数学系教授，研究方向为线性代数和概率统计",
				createdAt:    now,
			},
			{
				profile: model.UserProfile{
					ID: FixtureAdminID, Username: "admin01", Email: "admin01@campus.edu",
					FullName: "Admin User", Department: "Administration",
					Roles: []model.Role{model.RoleAdmin},
				},
				passwordHash: pw,
				status:       model.UserStatusActive,
				createdAt:    now,
			},
		},
		courses: []*model.Course{
			{ID: 101, Code: "MATH101", Name: "线性代数", Description: "矩阵运算、向量空间、特征值与特征向量", Faculty: "数学学院", TeacherIDs: []int64{FixtureTeacherID}, CreatedAt: now},
			{ID: 102, Code: "ENG102", Name: "大学英语", Description: "英语听说读写综合训练", Faculty: "外语学院", TeacherIDs: []int64{}, CreatedAt: now},
			{ID: 103, Code: "STAT103", Name: "概率统计", Description: "概率论基础、统计推断", Faculty: "数学学院", TeacherIDs: []int64{FixtureTeacherID}, CreatedAt: now},
		},
		resources: []*model.Resource{
			{ID: 1, Title: "线性代数复习提纲", Summary: "覆盖期末考试涉及的五大题型。", CourseID: 101, Visibility: model.VisibilityCourseOnly, UploaderID: FixtureStudentID, DownloadCount: 42, FileType: "pdf", FileSize: 240000, FilePath: "/uploads/resources/1/outline.pdf", CreatedAt: now},
			{ID: 2, Title: "大学英语作文模板", Summary: "常见六类题型模版与句式。", CourseID: 102, Visibility: model.VisibilityPublic, UploaderID: FixtureStudentID, DownloadCount: 58, FileType: "docx", FileSize: 120000, FilePath: "/uploads/resources/2/templates.docx", CreatedAt: now},
		},
		questions: []*model.Question{
			{ID: 1, CourseID: 101, Title: "矩阵对角化条件", Content: "什么情况下实矩阵可以正交对角化？", Status: model.QuestionStatusAnswered, AnswerCount: 2, StudentID: FixtureStudentID, CreatedAt: now},
			{ID: 2, CourseID: 103, Title: "概率统计复习范围", Content: "需要掌握哪些分布推导？", Status: model.QuestionStatusOpen, AnswerCount: 0, StudentID: FixtureStudentID, CreatedAt: now},
		},
		answers: []*model.Answer{
			{ID: 1, QuestionID: 1, TeacherID: FixtureTeacherID, Content: "实矩阵可以正交对角化的充要条件是：矩阵是对称矩阵。对称矩阵一定可以正交对角化。", CreatedAt: now},
			{ID: 2, QuestionID: 1, TeacherID: FixtureTeacherID, Content: "具体步骤：1) 求特征值 2) 求特征向量 3) 正交化特征向量 4) 单位化", CreatedAt: now},
		},
		notifications: []*notificationRecord{
			{userID: FixtureStudentID, Notification: model.Notification{ID: 1, Type: model.NotificationQuestionReplied, Message: "質問に新しい回答がありました: 矩阵对角化条件", QuestionID: 1, AnswerID: 1, CreatedAt: now}},
			{userID: FixtureTeacherID, Notification: model.Notification{ID: 2, Type: model.NotificationNewQuestion, Message: "新しい質問が投稿されました: 概率统计复习范围", QuestionID: 2, IsRead: true, CreatedAt: yesterday}},
		},
	}

	d.next = counters{
		user:         FixtureAdminID,
		course:       103,
		resource:     2,
		question:     2,
		answer:       2,
		attachment:   0,
		notification: 2,
	}
	return d, nil
}
