// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the admin user already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"student-portal/backend/internal/config"
	coursedomain "student-portal/backend/internal/course/domain"
	courserepo "student-portal/backend/internal/course/repository"
	"student-portal/backend/internal/db"
	enrollmentdomain "student-portal/backend/internal/enrollment/domain"
	enrollmentrepo "student-portal/backend/internal/enrollment/repository"
	policydomain "student-portal/backend/internal/policy/domain"
	policyrepo "student-portal/backend/internal/policy/repository"
	professordomain "student-portal/backend/internal/professor/domain"
	professorrepo "student-portal/backend/internal/professor/repository"
	programdomain "student-portal/backend/internal/program/domain"
	programrepo "student-portal/backend/internal/program/repository"
	"student-portal/backend/internal/security"
	studentdomain "student-portal/backend/internal/student/domain"
	studentrepo "student-portal/backend/internal/student/repository"
	userdomain "student-portal/backend/internal/user/domain"
	userrepo "student-portal/backend/internal/user/repository"
)

// defaultSessionPolicy matches the default in internal/policy/engine/opa_evaluator.go.
const defaultSessionPolicy = `package studentportal.sessions

default max_active_sessions = 1
default supersede_existing = true
`

const (
	adminUsername     = "admin"
	professorUsername = "pgarcia"
	studentUsername   = "jdoe"
	devPassword       = "Portal2025pass"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	programs := programrepo.NewPostgresRepository(conn)
	courses := courserepo.NewPostgresRepository(conn)
	students := studentrepo.NewPostgresRepository(conn)
	professors := professorrepo.NewPostgresRepository(conn)
	enrollments := enrollmentrepo.NewPostgresRepository(conn)
	policies := policyrepo.NewPostgresRepository(conn)

	ctx := context.Background()

	existing, err := users.GetByUsername(ctx, adminUsername)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (admin exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	now := time.Now().UTC()

	roleIDs := make(map[string]int32)
	for _, r := range []userdomain.Role{
		{Name: userdomain.RoleAdmin, Description: "Portal administration", Active: true, CreatedAt: now},
		{Name: userdomain.RoleProfessor, Description: "Teaching staff", Active: true, CreatedAt: now},
		{Name: userdomain.RoleStudent, Description: "Enrolled students", Active: true, CreatedAt: now},
	} {
		role := r
		if err := users.CreateRole(ctx, &role); err != nil {
			log.Fatalf("create role %s: %v", role.Name, err)
		}
		roleIDs[role.Name] = role.ID
	}

	adminID := createUser(ctx, users, userdomain.User{
		Username: adminUsername, PasswordHash: passwordHash,
		FirstName: "Portal", LastName: "Admin", Email: "admin@example.edu",
		RoleID: roleIDs[userdomain.RoleAdmin],
	}, now)
	professorUserID := createUser(ctx, users, userdomain.User{
		Username: professorUsername, PasswordHash: passwordHash,
		FirstName: "Pedro", LastName: "Garcia", Email: "pgarcia@example.edu",
		RoleID: roleIDs[userdomain.RoleProfessor],
	}, now)
	studentUserID := createUser(ctx, users, userdomain.User{
		Username: studentUsername, PasswordHash: passwordHash,
		FirstName: "Jane", LastName: "Doe", Email: "jdoe@example.edu",
		RoleID: roleIDs[userdomain.RoleStudent],
	}, now)

	program := &programdomain.Program{
		Name:        "Computer Science",
		Description: "Undergraduate computer science program",
		MinCredits:  120,
		MaxCredits:  180,
		CreatedBy:   adminID,
		Active:      true,
		CreatedAt:   now,
	}
	if err := programs.Create(ctx, program); err != nil {
		log.Fatalf("create program: %v", err)
	}

	algorithms := &coursedomain.Course{
		Code: "CS-201", Name: "Algorithms and Data Structures", Credits: 6,
		CreatedBy: adminID, Active: true, CreatedAt: now,
	}
	databases := &coursedomain.Course{
		Code: "CS-305", Name: "Database Systems", Credits: 5,
		CreatedBy: adminID, Active: true, CreatedAt: now,
	}
	for _, c := range []*coursedomain.Course{algorithms, databases} {
		if err := courses.Create(ctx, c); err != nil {
			log.Fatalf("create course %s: %v", c.Code, err)
		}
	}

	professor := &professordomain.Professor{
		UserID: professorUserID, EmployeeNumber: "EMP-0001",
		Department: "Computer Science", Active: true, CreatedAt: now,
	}
	if err := professors.Create(ctx, professor); err != nil {
		log.Fatalf("create professor: %v", err)
	}
	for _, c := range []*coursedomain.Course{algorithms, databases} {
		if err := professors.AssignCourse(ctx, professor.ID, c.ID, now); err != nil {
			log.Fatalf("assign course %s: %v", c.Code, err)
		}
	}

	student := &studentdomain.Student{
		UserID: studentUserID, StudentNumber: "S-2025-0001",
		Major: "Computer Science", ProgramID: program.ID,
		Active: true, CreatedAt: now,
	}
	if err := students.Create(ctx, student); err != nil {
		log.Fatalf("create student: %v", err)
	}

	if err := enrollments.Create(ctx, &enrollmentdomain.Enrollment{
		StudentID:  student.ID,
		CourseID:   algorithms.ID,
		Status:     enrollmentdomain.StatusEnrolled,
		EnrolledAt: now,
		Active:     true,
	}); err != nil {
		log.Fatalf("create enrollment: %v", err)
	}

	if err := policies.Create(ctx, &policydomain.SessionPolicy{
		ID:        uuid.New().String(),
		Name:      "default single session",
		Rules:     defaultSessionPolicy,
		Enabled:   true,
		CreatedAt: now,
	}); err != nil {
		log.Fatalf("create session policy: %v", err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Admin login: %s / %s\n", adminUsername, devPassword)
	fmt.Printf("Professor login: %s / %s\n", professorUsername, devPassword)
	fmt.Printf("Student login: %s / %s\n", studentUsername, devPassword)
}

func createUser(ctx context.Context, repo *userrepo.PostgresRepository, u userdomain.User, now time.Time) string {
	u.ID = uuid.New().String()
	u.Active = true
	u.CreatedAt = now
	if err := repo.Create(ctx, &u); err != nil {
		log.Fatalf("create user %s: %v", u.Username, err)
	}
	return u.ID
}
