package simulated

import (
	"context"
	"slices"
	"strings"

	"github.com/hitoshi/eduqa/internal/model"
)

// DefaultTeacherPassword はパスワード未指定で作成された教員の初期パスワード。
const DefaultTeacherPassword = "123456"

// GetCourses はコースを検索する。キーワードはコース名とコースコードに一致する。
func (g *Gateway) GetCourses(ctx context.Context, q model.CourseQuery) (*model.Page[model.Course], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items := []model.Course{}
	for _, c := range g.db.courses {
		if !matchesKeyword(q.Keyword, c.Name, c.Code) {
			continue
		}
		if q.Faculty != "" && c.Faculty != q.Faculty {
			continue
		}
		items = append(items, g.db.courseView(c))
	}
	return paginate(items, q.Paging), nil
}

// CreateCourse はコースを作成する。コースコードは一意でなければならない。
func (g *Gateway) CreateCourse(ctx context.Context, in model.CourseCreate) (*model.Course, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := g.check(in); err != nil {
		return nil, err
	}
	if g.courseCodeTaken(in.Code, 0) {
		return nil, model.NewDuplicateCourseCodeError(in.Code)
	}
	teacherIDs := uniqueIDs(in.TeacherIDs)
	if err := g.db.checkTeachers(teacherIDs); err != nil {
		return nil, err
	}

	c := &model.Course{
		ID:          g.db.nextID(&g.db.next.course),
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		Faculty:     in.Faculty,
		TeacherIDs:  teacherIDs,
		CreatedAt:   g.now(),
	}
	g.db.courses = append(g.db.courses, c)
	out := g.db.courseView(c)
	return &out, nil
}

// UpdateCourse はコースを部分更新する。TeacherIDsがnilの場合は担当教員を変更しない。
func (g *Gateway) UpdateCourse(ctx context.Context, id int64, in model.CourseUpdate) (*model.Course, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	c := g.db.course(id)
	if c == nil {
		return nil, model.NewNotFoundError(model.EntityCourse, id)
	}
	if err := g.check(in); err != nil {
		return nil, err
	}
	if in.Code != nil && g.courseCodeTaken(*in.Code, id) {
		return nil, model.NewDuplicateCourseCodeError(*in.Code)
	}
	var teacherIDs []int64
	if in.TeacherIDs != nil {
		teacherIDs = uniqueIDs(in.TeacherIDs)
		if err := g.db.checkTeachers(teacherIDs); err != nil {
			return nil, err
		}
	}

	if in.Code != nil {
		c.Code = *in.Code
	}
	if in.Name != nil {
		c.Name = *in.Name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Faculty != nil {
		c.Faculty = *in.Faculty
	}
	if in.TeacherIDs != nil {
		c.TeacherIDs = teacherIDs
	}
	now := g.now()
	c.UpdatedAt = &now

	out := g.db.courseView(c)
	return &out, nil
}

// DeleteCourse はコースを削除し、学生の受講コースからも取り除く。
// 教員の担当はコース側で管理しているためコースとともに消える。
func (g *Gateway) DeleteCourse(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if g.db.course(id) == nil {
		return model.NewNotFoundError(model.EntityCourse, id)
	}
	g.db.courses = slices.DeleteFunc(g.db.courses, func(c *model.Course) bool { return c.ID == id })
	for _, u := range g.db.users {
		u.courseIDs = slices.DeleteFunc(u.courseIDs, func(cid int64) bool { return cid == id })
	}
	return nil
}

func (g *Gateway) courseCodeTaken(code string, except int64) bool {
	for _, c := range g.db.courses {
		if c.ID != except && strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}

// GetTeachers は教員ロールを持つユーザーを検索する。
// キーワードは氏名・ユーザー名・メールアドレスに一致する。
func (g *Gateway) GetTeachers(ctx context.Context, q model.PersonQuery) (*model.Page[model.Teacher], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items := []model.Teacher{}
	for _, u := range g.db.users {
		if !u.profile.HasRole(model.RoleTeacher) || !matchesPerson(u, q) {
			continue
		}
		items = append(items, g.db.teacherView(u))
	}
	return paginate(items, q.Paging), nil
}

// CreateTeacher は教員ユーザーを作成し、指定されたコースに割り当てる。
func (g *Gateway) CreateTeacher(ctx context.Context, in model.TeacherCreate) (*model.Teacher, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := g.check(in); err != nil {
		return nil, err
	}
	if g.db.identityTaken(in.Username, in.Email, 0) {
		return nil, model.NewDuplicateUserError()
	}
	courseIDs := uniqueIDs(in.CourseIDs)
	if err := g.db.checkCourses(courseIDs); err != nil {
		return nil, err
	}
	password := in.Password
	if password == "" {
		password = DefaultTeacherPassword
	}
	hash, err := g.hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := g.now()
	u := &userRecord{
		profile: model.UserProfile{
			ID:         g.db.nextID(&g.db.next.user),
			Username:   in.Username,
			Email:      in.Email,
			FullName:   in.FullName,
			Department: in.Department,
			Roles:      []model.Role{model.RoleTeacher},
		},
		passwordHash: hash,
		status:       model.UserStatusActive,
		title:        in.Title,
		bio:          in.Bio,
		createdAt:    now,
		updatedAt:    &now,
	}
	g.db.users = append(g.db.users, u)
	g.db.assignTeacher(u.profile.ID, courseIDs)

	out := g.db.teacherView(u)
	return &out, nil
}

// UpdateTeacher は教員を部分更新する。CourseIDsがnilの場合は担当コースを変更しない。
func (g *Gateway) UpdateTeacher(ctx context.Context, id int64, in model.TeacherUpdate) (*model.Teacher, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	u := g.db.userByRole(id, model.RoleTeacher)
	if u == nil {
		return nil, model.NewNotFoundError(model.EntityTeacher, id)
	}
	if err := g.check(in); err != nil {
		return nil, err
	}
	username, email := "", ""
	if in.Username != nil {
		username = *in.Username
	}
	if in.Email != nil {
		email = *in.Email
	}
	if g.db.identityTaken(username, email, id) {
		return nil, model.NewDuplicateUserError()
	}
	var courseIDs []int64
	if in.CourseIDs != nil {
		courseIDs = uniqueIDs(in.CourseIDs)
		if err := g.db.checkCourses(courseIDs); err != nil {
			return nil, err
		}
	}
	var hash []byte
	if in.Password != nil {
		if hash, err = g.hashPassword(*in.Password); err != nil {
			return nil, err
		}
	}

	if in.Username != nil {
		u.profile.Username = *in.Username
	}
	if in.Email != nil {
		u.profile.Email = *in.Email
	}
	if in.FullName != nil {
		u.profile.FullName = *in.FullName
	}
	if in.Department != nil {
		u.profile.Department = *in.Department
	}
	if in.Title != nil {
		u.title = *in.Title
	}
	if in.Bio != nil {
		u.bio = *in.Bio
	}
	if hash != nil {
		u.passwordHash = hash
	}
	if in.CourseIDs != nil {
		g.db.assignTeacher(id, courseIDs)
	}
	now := g.now()
	u.updatedAt = &now

	out := g.db.teacherView(u)
	return &out, nil
}

// SetTeacherCourses は教員の担当コースをcourseIDsで置き換える。
func (g *Gateway) SetTeacherCourses(ctx context.Context, teacherID int64, courseIDs []int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	u := g.db.userByRole(teacherID, model.RoleTeacher)
	if u == nil {
		return model.NewNotFoundError(model.EntityTeacher, teacherID)
	}
	ids := uniqueIDs(courseIDs)
	if err := g.db.checkCourses(ids); err != nil {
		return err
	}
	g.db.assignTeacher(teacherID, ids)
	now := g.now()
	u.updatedAt = &now
	return nil
}

// DeleteTeacher はユーザーから教員ロールを外し、全コースの担当から外す。
// 他のロールが残らない場合のみユーザー自体を削除する。
// 投稿済みの回答は残り、ユーザーが削除された場合の回答者名は代替表記になる。
func (g *Gateway) DeleteTeacher(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	u := g.db.userByRole(id, model.RoleTeacher)
	if u == nil {
		return model.NewNotFoundError(model.EntityTeacher, id)
	}
	g.db.assignTeacher(id, nil)

	u.profile.Roles = slices.DeleteFunc(u.profile.Roles, func(r model.Role) bool { return r == model.RoleTeacher })
	if len(u.profile.Roles) > 0 {
		u.title, u.bio = "", ""
		now := g.now()
		u.updatedAt = &now
		return nil
	}

	g.db.users = slices.DeleteFunc(g.db.users, func(x *userRecord) bool { return x.profile.ID == id })
	g.db.notifications = slices.DeleteFunc(g.db.notifications, func(n *notificationRecord) bool { return n.userID == id })
	return nil
}

// GetStudents は学生ロールを持つユーザーを検索する。
func (g *Gateway) GetStudents(ctx context.Context, q model.PersonQuery) (*model.Page[model.Student], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	items := []model.Student{}
	for _, u := range g.db.users {
		if !u.profile.HasRole(model.RoleStudent) || !matchesPerson(u, q) {
			continue
		}
		items = append(items, g.db.studentView(u))
	}
	return paginate(items, q.Paging), nil
}

// SetStudentCourses は学生の受講コースをcourseIDsで置き換える。
func (g *Gateway) SetStudentCourses(ctx context.Context, studentID int64, courseIDs []int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	u := g.db.userByRole(studentID, model.RoleStudent)
	if u == nil {
		return model.NewNotFoundError(model.EntityStudent, studentID)
	}
	ids := uniqueIDs(courseIDs)
	if err := g.db.checkCourses(ids); err != nil {
		return err
	}
	u.courseIDs = ids
	return nil
}

func matchesPerson(u *userRecord, q model.PersonQuery) bool {
	if !matchesKeyword(q.Keyword, u.profile.FullName, u.profile.Username, u.profile.Email) {
		return false
	}
	return q.Department == "" || u.profile.Department == q.Department
}

// GetAllResources は管理者向けに公開範囲に関係なく全資料を検索する。
func (g *Gateway) GetAllResources(ctx context.Context, q model.ResourceQuery) (*model.Page[model.Resource], error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return paginate(g.db.filterResources(q, nil), q.Paging), nil
}

// AdminDeleteResource は管理者による資料の削除。
func (g *Gateway) AdminDeleteResource(ctx context.Context, id int64) error {
	unlock, err := g.enter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	return g.deleteResource(id)
}

// AdminUpdateResource は管理者による資料の部分更新。
func (g *Gateway) AdminUpdateResource(ctx context.Context, id int64, in model.ResourceUpdate) (*model.Resource, error) {
	unlock, err := g.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	r := g.db.resource(id)
	if r == nil {
		return nil, model.NewNotFoundError(model.EntityResource, id)
	}
	if err := g.check(in); err != nil {
		return nil, err
	}
	if in.CourseID != nil {
		if err := g.db.checkCourses([]int64{*in.CourseID}); err != nil {
			return nil, err
		}
		r.CourseID = *in.CourseID
	}
	if in.Title != nil {
		r.Title = g.sanitizer.SanitizeText(*in.Title)
	}
	if in.Summary != nil {
		r.Summary = g.sanitizer.SanitizeText(*in.Summary)
	}
	if in.Visibility != nil {
		r.Visibility = *in.Visibility
	}
	out := *r
	return &out, nil
}
