package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	coursesvc "github.com/gradeflow/backend/internal/application/course"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupSectionTestRouter() (*gin.Engine, *MockSectionRepository, *SectionHandler) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	mockRepo := new(MockSectionRepository)
	service := coursesvc.NewSectionService(mockRepo, testUserService(new(MockOperatorRepository)))
	handler := NewSectionHandler(service)

	return router, mockRepo, handler
}

func TestSectionHandler_List(t *testing.T) {
	router, mockRepo, handler := setupSectionTestRouter()
	router.GET("/sections", handler.List)

	section := testCourseSection("900")
	mockRepo.On("FindAll", mock.Anything, mock.Anything).Return([]course.Section{*section}, nil)
	mockRepo.On("CountAssignments", mock.Anything, section.ID).Return(int64(3), nil)

	req, _ := http.NewRequest("GET", "/sections", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response["success"].(bool))

	data := response["data"].([]interface{})
	assert.Len(t, data, 1)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "900", first["section_number"])
	assert.Equal(t, course.DefaultCourseCode, first["course_code"])
	assert.Equal(t, float64(3), first["assignment_count"])

	mockRepo.AssertExpectations(t)
}

func TestSectionHandler_Get(t *testing.T) {
	t.Run("should return section by ID", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.GET("/sections/:id", handler.Get)

		section := testCourseSection("901")
		mockRepo.On("FindByID", mock.Anything, section.ID).Return(section, nil)
		mockRepo.On("CountAssignments", mock.Anything, section.ID).Return(int64(0), nil)

		req, _ := http.NewRequest("GET", "/sections/"+section.ID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "901", data["section_number"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 404 when section does not exist", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.GET("/sections/:id", handler.Get)

		id := uuid.New()
		mockRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		req, _ := http.NewRequest("GET", "/sections/"+id.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.False(t, response["success"].(bool))
	})

	t.Run("should return 400 for malformed ID", func(t *testing.T) {
		router, _, handler := setupSectionTestRouter()
		router.GET("/sections/:id", handler.Get)

		req, _ := http.NewRequest("GET", "/sections/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSectionHandler_Create(t *testing.T) {
	t.Run("should create section", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.POST("/sections", handler.Create)

		mockRepo.On("ExistsBySectionNumber", mock.Anything, "903").Return(false, nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*course.Section")).Return(nil)

		body, _ := json.Marshal(map[string]interface{}{
			"section_number": "903",
		})
		req, _ := http.NewRequest("POST", "/sections", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "903", data["section_number"])
		assert.Equal(t, course.DefaultCourseCode, data["course_code"])
		assert.Equal(t, float64(0), data["assignment_count"])

		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 409 for duplicate section number", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.POST("/sections", handler.Create)

		mockRepo.On("ExistsBySectionNumber", mock.Anything, "900").Return(true, nil)

		body, _ := json.Marshal(map[string]interface{}{
			"section_number": "900",
		})
		req, _ := http.NewRequest("POST", "/sections", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.False(t, response["success"].(bool))
	})

	t.Run("should return 400 for missing section number", func(t *testing.T) {
		router, _, handler := setupSectionTestRouter()
		router.POST("/sections", handler.Create)

		body, _ := json.Marshal(map[string]interface{}{
			"course_code": "BUSN 403",
		})
		req, _ := http.NewRequest("POST", "/sections", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSectionHandler_Delete(t *testing.T) {
	t.Run("should delete empty section", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.DELETE("/sections/:id", handler.Delete)

		section := testCourseSection("902")
		mockRepo.On("FindByID", mock.Anything, section.ID).Return(section, nil)
		mockRepo.On("CountAssignments", mock.Anything, section.ID).Return(int64(0), nil)
		mockRepo.On("Delete", mock.Anything, section.ID).Return(nil)

		req, _ := http.NewRequest("DELETE", "/sections/"+section.ID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.True(t, response["success"].(bool))

		mockRepo.AssertExpectations(t)
	})

	t.Run("should refuse to delete section with assignments", func(t *testing.T) {
		router, mockRepo, handler := setupSectionTestRouter()
		router.DELETE("/sections/:id", handler.Delete)

		section := testCourseSection("902")
		mockRepo.On("FindByID", mock.Anything, section.ID).Return(section, nil)
		mockRepo.On("CountAssignments", mock.Anything, section.ID).Return(int64(2), nil)

		req, _ := http.NewRequest("DELETE", "/sections/"+section.ID.String(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		assert.NoError(t, err)
		assert.False(t, response["success"].(bool))

		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
