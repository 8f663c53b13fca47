package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"teachmatch/internal/adapter/store"
	"teachmatch/internal/domain"
)

var (
	addInstructorEmail  string
	addInstructorDegree string
	addInstructorBio    string
	addCourseCode       string
	addCourseCycle      int
	addCourseDesc       string
	addTopics           string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the instructor and course catalog",
}

var addInstructorCmd = &cobra.Command{
	Use:   "add-instructor <name>",
	Short: "Add an instructor to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddInstructor,
}

var addCourseCmd = &cobra.Command{
	Use:   "add-course <name>",
	Short: "Add a course to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddCourse,
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog contents",
	RunE:  runCatalogList,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(addInstructorCmd)
	catalogCmd.AddCommand(addCourseCmd)
	catalogCmd.AddCommand(catalogListCmd)

	addInstructorCmd.Flags().StringVar(&addInstructorEmail, "email", "", "contact email")
	addInstructorCmd.Flags().StringVar(&addInstructorDegree, "degree", "", "academic degree")
	addInstructorCmd.Flags().StringVar(&addInstructorBio, "bio", "", "biography text")
	addInstructorCmd.Flags().StringVar(&addTopics, "topics", "", "comma-separated topics")

	addCourseCmd.Flags().StringVar(&addCourseCode, "code", "", "course code, e.g. INF-101")
	addCourseCmd.Flags().IntVar(&addCourseCycle, "cycle", 0, "curriculum cycle")
	addCourseCmd.Flags().StringVar(&addCourseDesc, "description", "", "course description")
	addCourseCmd.Flags().StringVar(&addTopics, "topics", "", "comma-separated topics")
}

func runAddInstructor(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now()
	p := domain.InstructorProfile{
		ID:         uuid.NewString(),
		Name:       args[0],
		Email:      addInstructorEmail,
		Degree:     addInstructorDegree,
		Biography:  addInstructorBio,
		Attributes: domain.AttributeSet{Topics: splitCSV(addTopics)},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := addInstructorProfile(st, p); err != nil {
		return err
	}
	fmt.Printf("Added instructor %s (%s)\n", p.Name, p.ID)
	return nil
}

// addInstructorProfile persists the profile and drops every cached ranked
// list, since a new candidate can appear in any of them.
func addInstructorProfile(st *store.BoltStore, p domain.InstructorProfile) error {
	if err := st.PutInstructor(p); err != nil {
		return err
	}
	_, err := st.ClearRecommendations("")
	return err
}

func runAddCourse(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	now := time.Now()
	c := domain.CourseProfile{
		ID:          uuid.NewString(),
		Name:        args[0],
		Code:        addCourseCode,
		Cycle:       addCourseCycle,
		Description: addCourseDesc,
		Attributes:  domain.AttributeSet{Topics: splitCSV(addTopics)},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := st.PutCourse(c); err != nil {
		return err
	}
	fmt.Printf("Added course %s (%s)\n", c.Name, c.ID)
	return nil
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	instructors, err := st.ListInstructors()
	if err != nil {
		return err
	}
	courses, err := st.ListCourses()
	if err != nil {
		return err
	}

	fmt.Printf("Instructors (%d):\n", len(instructors))
	for _, p := range instructors {
		fmt.Printf("  %s  %s\n", p.ID, p.Name)
	}
	fmt.Printf("Courses (%d):\n", len(courses))
	for _, c := range courses {
		code := c.Code
		if code == "" {
			code = "-"
		}
		fmt.Printf("  %s  %-10s %s\n", c.ID, code, c.Name)
	}
	return nil
}

func splitCSV(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
