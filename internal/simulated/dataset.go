package simulated

import (
	"slices"
	"time"

	"github.com/hitoshi/eduqa/internal/model"
)

// userRecord は保存されるユーザー。教員・学生のプロジェクションはここから導出する。
type userRecord struct {
	profile      model.UserProfile
	passwordHash []byte
	status       model.UserStatus
	title        string
	bio          string
	schoolID     string
	courseIDs    []int64 // 学生の受講コース
	createdAt    time.Time
	updatedAt    *time.Time
}

// notificationRecord は宛先ユーザー付きの通知。
type notificationRecord struct {
	userID int64
	model.Notification
}

// counters はエンティティ種別ごとの採番カウンタ。削除後も値を再利用しない。
type counters struct {
	user, course, resource, question, answer, attachment, notification int64
}

// dataset はシミュレーションが保持する全データ。
// コースの担当教員はCourse.TeacherIDs、学生の受講コースはuserRecord.courseIDsを正とする。
// 名前の一覧は読み出し時に導出し、保存しない。
type dataset struct {
	users         []*userRecord
	courses       []*model.Course
	resources     []*model.Resource
	questions     []*model.Question
	answers       []*model.Answer
	notifications []*notificationRecord
	next          counters
}

func (d *dataset) user(id int64) *userRecord {
	for _, u := range d.users {
		if u.profile.ID == id {
			return u
		}
	}
	return nil
}

func (d *dataset) userByRole(id int64, role model.Role) *userRecord {
	u := d.user(id)
	if u == nil || !u.profile.HasRole(role) {
		return nil
	}
	return u
}

func (d *dataset) userByLogin(login string) *userRecord {
	for _, u := range d.users {
		if u.profile.Username == login || u.profile.Email == login {
			return u
		}
	}
	return nil
}

func (d *dataset) userByEmail(email string) *userRecord {
	for _, u := range d.users {
		if u.profile.Email == email {
			return u
		}
	}
	return nil
}

// identityTaken はexcept以外のユーザーがusernameまたはemailを使用しているかを返す。
func (d *dataset) identityTaken(username, email string, except int64) bool {
	for _, u := range d.users {
		if u.profile.ID == except {
			continue
		}
		if (username != "" && u.profile.Username == username) || (email != "" && u.profile.Email == email) {
			return true
		}
	}
	return false
}

func (d *dataset) course(id int64) *model.Course {
	for _, c := range d.courses {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (d *dataset) courseName(id int64) string {
	if c := d.course(id); c != nil {
		return c.Name
	}
	return ""
}

func (d *dataset) resource(id int64) *model.Resource {
	for _, r := range d.resources {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (d *dataset) question(id int64) *model.Question {
	for _, q := range d.questions {
		if q.ID == id {
			return q
		}
	}
	return nil
}

func (d *dataset) answer(id int64) *model.Answer {
	for _, a := range d.answers {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// displayName は表示名を返す。ユーザーが削除済みの場合は代替表記を返す。
func (d *dataset) displayName(id int64) string {
	if u := d.user(id); u != nil {
		return u.profile.FullName
	}
	return "退会したユーザー"
}

// teacherCourseIDs は教員が担当するコースIDをコースの並び順で返す。
func (d *dataset) teacherCourseIDs(teacherID int64) []int64 {
	ids := []int64{}
	for _, c := range d.courses {
		if slices.Contains(c.TeacherIDs, teacherID) {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

func (d *dataset) courseNames(ids []int64) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, d.courseName(id))
	}
	return names
}

// courseView は担当教員名を導出したコースのコピーを返す。
func (d *dataset) courseView(c *model.Course) model.Course {
	out := *c
	out.TeacherIDs = slices.Clone(c.TeacherIDs)
	if out.TeacherIDs == nil {
		out.TeacherIDs = []int64{}
	}
	out.TeacherNames = make([]string, 0, len(c.TeacherIDs))
	for _, id := range c.TeacherIDs {
		out.TeacherNames = append(out.TeacherNames, d.displayName(id))
	}
	return out
}

func (d *dataset) teacherView(u *userRecord) model.Teacher {
	ids := d.teacherCourseIDs(u.profile.ID)
	return model.Teacher{
		ID:          u.profile.ID,
		Username:    u.profile.Username,
		Email:       u.profile.Email,
		FullName:    u.profile.FullName,
		Department:  u.profile.Department,
		Title:       u.title,
		Bio:         u.bio,
		CourseIDs:   ids,
		CourseNames: d.courseNames(ids),
		Status:      u.status,
		CreatedAt:   u.createdAt,
		UpdatedAt:   u.updatedAt,
	}
}

func (d *dataset) studentView(u *userRecord) model.Student {
	ids := slices.Clone(u.courseIDs)
	if ids == nil {
		ids = []int64{}
	}
	return model.Student{
		ID:          u.profile.ID,
		Username:    u.profile.Username,
		Email:       u.profile.Email,
		FullName:    u.profile.FullName,
		Department:  u.profile.Department,
		SchoolID:    u.schoolID,
		Status:      u.status,
		CourseIDs:   ids,
		CourseNames: d.courseNames(ids),
		CreatedAt:   u.createdAt,
	}
}

func profileView(u *userRecord) model.UserProfile {
	p := u.profile
	p.Roles = slices.Clone(u.profile.Roles)
	return p
}

func questionView(q *model.Question) model.Question {
	out := *q
	out.Attachments = slices.Clone(q.Attachments)
	return out
}

func (d *dataset) answerView(a *model.Answer) model.Answer {
	out := *a
	out.TeacherName = d.displayName(a.TeacherID)
	out.Attachments = slices.Clone(a.Attachments)
	return out
}

func (d *dataset) questionDetail(q *model.Question) *model.QuestionDetail {
	answers := []model.Answer{}
	for _, a := range d.answers {
		if a.QuestionID == q.ID {
			answers = append(answers, d.answerView(a))
		}
	}
	return &model.QuestionDetail{
		Question:    questionView(q),
		StudentName: d.displayName(q.StudentID),
		Answers:     answers,
	}
}

// checkCourses は全IDが既存のコースであることを確認する。
func (d *dataset) checkCourses(ids []int64) error {
	for _, id := range ids {
		if d.course(id) == nil {
			return model.NewNotFoundError(model.EntityCourse, id)
		}
	}
	return nil
}

// checkTeachers は全IDが教員ロールを持つユーザーであることを確認する。
func (d *dataset) checkTeachers(ids []int64) error {
	for _, id := range ids {
		if d.userByRole(id, model.RoleTeacher) == nil {
			return model.NewNotFoundError(model.EntityTeacher, id)
		}
	}
	return nil
}

// assignTeacher は教員の担当コースをcourseIDsに置き換える。
func (d *dataset) assignTeacher(teacherID int64, courseIDs []int64) {
	for _, c := range d.courses {
		has := slices.Contains(c.TeacherIDs, teacherID)
		want := slices.Contains(courseIDs, c.ID)
		switch {
		case want && !has:
			c.TeacherIDs = append(c.TeacherIDs, teacherID)
		case !want && has:
			c.TeacherIDs = slices.DeleteFunc(c.TeacherIDs, func(id int64) bool { return id == teacherID })
		}
	}
}

func (d *dataset) notify(userID int64, typ model.NotificationType, message string, questionID, answerID int64, at time.Time) {
	d.notifications = append(d.notifications, &notificationRecord{
		userID: userID,
		Notification: model.Notification{
			ID:         d.nextID(&d.next.notification),
			Type:       typ,
			Message:    message,
			QuestionID: questionID,
			AnswerID:   answerID,
			CreatedAt:  at,
		},
	})
}

// nextID はカウンタを進めて新しいIDを返す。
func (d *dataset) nextID(counter *int64) int64 {
	*counter++
	return *counter
}

// uniqueIDs は重複と0以下の値を除いたIDを元の順序で返す。nilの場合は空スライスを返す。
func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
