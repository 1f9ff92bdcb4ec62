package controllers

import (
	"errors"
	"net/http"
	"time"

	"prajavaradhi-be/config"
	"prajavaradhi-be/middlewares"
	"prajavaradhi-be/models"
	"prajavaradhi-be/store"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Attempts at generating a unique human-readable issue ID before giving up.
const issueIDAttempts = 5

// issueWithReporter replaces the raw userId reference with a read-only
// projection of the reporting user for list and detail responses.
type issueWithReporter struct {
	models.Issue
	UserID gin.H `json:"userId"`
}

func withReporter(c *gin.Context, issue models.Issue, includePhone bool) issueWithReporter {
	reporter := gin.H{"_id": issue.UserID}
	if user, err := userStore.FindByID(c.Request.Context(), issue.UserID); err == nil {
		reporter["name"] = user.Name
		reporter["email"] = user.Email
		if includePhone {
			reporter["phone"] = user.Phone
		}
	}
	return issueWithReporter{Issue: issue, UserID: reporter}
}

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	user, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	// Break-glass operators have no stored identity to own the document.
	if user.Synthetic {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Operator accounts cannot report issues"})
		return
	}

	var input struct {
		District string `json:"district" binding:"required"`
		Category string `json:"category" binding:"required"`
		Title    string `json:"title" binding:"required,max=200"`
		Location string `json:"location" binding:"required,max=200"`
		Details  string `json:"details" binding:"required,max=2000"`
		Priority string `json:"priority"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	priority := models.Medium
	if input.Priority != "" {
		switch models.IssuePriority(input.Priority) {
		case models.Low, models.Medium, models.High, models.Critical:
			priority = models.IssuePriority(input.Priority)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid priority"})
			return
		}
	}

	now := time.Now()
	issue := models.Issue{
		ID:              primitive.NewObjectID(),
		UserID:          user.ObjectID,
		UserName:        user.Name,
		UserPhone:       user.Phone,
		District:        input.District,
		Category:        input.Category,
		Title:           input.Title,
		Location:        input.Location,
		Details:         input.Details,
		Status:          models.Pending, // forced regardless of caller input
		Priority:        priority,
		Photos:          []string{},
		ProgressUpdates: []models.ProgressUpdate{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The random suffix can collide; regenerate against the unique index.
	var err error
	for attempt := 0; attempt < issueIDAttempts; attempt++ {
		issue.IssueID = models.NewIssueID(input.District, time.Now().UTC())
		err = issueStore.Insert(c.Request.Context(), &issue)
		if !errors.Is(err, store.ErrDuplicateIssueID) {
			break
		}
	}
	if err != nil {
		config.Logger().Error("Failed to create issue", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "data": issue})
}

// GetAllIssues lists issues newest first. District-bound admins see only
// verified, non-duplicate issues in their district; everyone else sees
// everything.
func GetAllIssues(c *gin.Context) {
	filter := store.IssueFilter{}
	if user, ok := middlewares.CurrentUser(c); ok && user.Role == models.RoleAdmin {
		filter.VerifiedOnly = true
		filter.District = user.District
	}

	issues, err := issueStore.Find(c.Request.Context(), filter)
	if err != nil {
		config.Logger().Error("Failed to retrieve issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve issues"})
		return
	}

	data := make([]issueWithReporter, 0, len(issues))
	for _, issue := range issues {
		data = append(data, withReporter(c, issue, false))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(data),
		"data":    data,
	})
}

// GetIssueById retrieves a single issue and bumps its view counter
func GetIssueById(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid issue ID"})
		return
	}

	issue, err := issueStore.FindByID(c.Request.Context(), issueID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
		} else {
			config.Logger().Error("Failed to retrieve issue", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve issue"})
		}
		return
	}

	if err := issueStore.IncrementViewCount(c.Request.Context(), issueID); err == nil {
		issue.ViewCount++
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": withReporter(c, *issue, true)})
}

// GetUserIssues lists the issues a user has reported, newest first
func GetUserIssues(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user ID"})
		return
	}

	issues, err := issueStore.FindByUser(c.Request.Context(), userID)
	if err != nil {
		config.Logger().Error("Failed to retrieve issues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve issues"})
		return
	}

	data := make([]issueWithReporter, 0, len(issues))
	for _, issue := range issues {
		data = append(data, withReporter(c, issue, false))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(data),
		"data":    data,
	})
}

// UpdateIssue lets an admin change status, tag, priority and resolution
// notes. Setting status to Resolved stamps resolvedDate; setting it to
// In Action without an explicit assignee assigns the acting admin.
func UpdateIssue(c *gin.Context) {
	admin, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid issue ID"})
		return
	}

	var input struct {
		Status          *string `json:"status"`
		Tag             *string `json:"tag"`
		Priority        *string `json:"priority"`
		ResolutionNotes *string `json:"resolutionNotes"`
		AssignedTo      *string `json:"assignedTo"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	upd := store.IssueUpdate{
		Tag:             input.Tag,
		ResolutionNotes: input.ResolutionNotes,
		AssignedTo:      input.AssignedTo,
	}

	if input.Priority != nil {
		switch models.IssuePriority(*input.Priority) {
		case models.Low, models.Medium, models.High, models.Critical:
			priority := models.IssuePriority(*input.Priority)
			upd.Priority = &priority
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid priority"})
			return
		}
	}

	if input.Status != nil {
		status := models.IssueStatus(*input.Status)
		switch status {
		case models.Pending, models.InAction, models.Resolved:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid status"})
			return
		}

		current, err := issueStore.FindByID(c.Request.Context(), issueID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
			} else {
				config.Logger().Error("Failed to retrieve issue", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to retrieve issue"})
			}
			return
		}

		// Resolved is terminal
		if current.Status == models.Resolved && status != models.Resolved {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Resolved issues cannot be reopened"})
			return
		}

		upd.Status = &status

		now := time.Now()
		if status == models.Resolved {
			upd.ResolvedDate = &now
		}
		if status == models.InAction && input.AssignedTo == nil {
			upd.AssignedTo = &admin.ID
			upd.AssignedDate = &now
		}
	}

	issue, err := issueStore.Update(c.Request.Context(), issueID, upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
		} else {
			config.Logger().Error("Failed to update issue", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update issue"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": issue})
}

// AddProgressUpdate appends an entry to an issue's progress history
func AddProgressUpdate(c *gin.Context) {
	admin, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid issue ID"})
		return
	}

	var input struct {
		Comment string `json:"comment" binding:"required"`
		Photo   string `json:"photo"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Comment is required"})
		return
	}

	updatedBy := admin.Name
	if updatedBy == "" {
		updatedBy = "Public Representative"
	}

	progressUpdate := models.ProgressUpdate{
		Comment:   input.Comment,
		Photo:     input.Photo,
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}

	issue, err := issueStore.AppendProgress(c.Request.Context(), issueID, progressUpdate)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
		} else {
			config.Logger().Error("Failed to add progress update", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to add progress update"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Progress update added successfully",
		"data":    issue,
	})
}

// VerifyIssue lets a moderator confirm an issue or flag it as a duplicate.
// Fields absent from the request stay untouched; verifiedBy and
// verifiedDate are stamped on every call.
func VerifyIssue(c *gin.Context) {
	moderator, ok := middlewares.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not authenticated"})
		return
	}

	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid issue ID"})
		return
	}

	var input struct {
		IsVerified     *bool   `json:"isVerified"`
		ModeratorNotes *string `json:"moderatorNotes"`
		IsDuplicate    *bool   `json:"isDuplicate"`
		DuplicateOf    *string `json:"duplicateOf"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	now := time.Now()
	upd := store.IssueUpdate{
		IsVerified:     input.IsVerified,
		ModeratorNotes: input.ModeratorNotes,
		IsDuplicate:    input.IsDuplicate,
		DuplicateOf:    input.DuplicateOf,
		VerifiedBy:     &moderator.ID,
		VerifiedDate:   &now,
	}

	issue, err := issueStore.Update(c.Request.Context(), issueID, upd)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
		} else {
			config.Logger().Error("Failed to update issue verification", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update issue verification"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Issue verification updated",
		"data":    issue,
	})
}
