package controllers

import (
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createIssue(t *testing.T, r *gin.Engine, token string, payload gin.H) map[string]any {
	t.Helper()

	if payload == nil {
		payload = gin.H{
			"district": "Guntur",
			"category": "Road",
			"title":    "Pothole on NH16",
			"location": "Near bus stand",
			"details":  "Large pothole causing accidents",
		}
	}
	w := doRequest(t, r, "POST", "/api/issues", token, payload)
	require.Equal(t, 201, w.Code, w.Body.String())
	return decodeBody(t, w)["data"].(map[string]any)
}

func TestCreateIssueForcesPendingStatus(t *testing.T) {
	r, _, _ := setupRouter(t)
	token, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")

	data := createIssue(t, r, token, gin.H{
		"district": "Guntur",
		"category": "Road",
		"title":    "Pothole on NH16",
		"location": "Near bus stand",
		"details":  "Large pothole causing accidents",
		"status":   "Resolved", // must be ignored
	})

	assert.Equal(t, "Pending", data["status"])
	assert.Equal(t, "Medium", data["priority"])
}

func TestCreateIssueIdentifierFormat(t *testing.T) {
	r, _, _ := setupRouter(t)
	token, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")

	data := createIssue(t, r, token, nil)

	datePart := time.Now().UTC().Format("20060102")
	assert.Regexp(t, regexp.MustCompile(`^GUN-`+datePart+`-\d{4}$`), data["id"])
}

func TestCreateIssueSnapshotsReporter(t *testing.T) {
	r, _, _ := setupRouter(t)
	token, id := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")

	data := createIssue(t, r, token, nil)

	assert.Equal(t, id, data["userId"])
	assert.Equal(t, "Anil", data["userName"])
	assert.Equal(t, "9000000001", data["userPhone"])
}

func TestCreateIssueRequiresAuth(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := doRequest(t, r, "POST", "/api/issues", "", gin.H{
		"district": "Guntur",
		"category": "Road",
		"title":    "T",
		"location": "L",
		"details":  "D",
	})
	assert.Equal(t, 401, w.Code)
}

func TestCreateIssueRejectsBreakGlassIdentity(t *testing.T) {
	r, _, _ := setupRouter(t)
	t.Setenv("LEGACY_ADMIN_CREDENTIALS", "admin:admin123")

	w := doRequest(t, r, "POST", "/api/auth/login", "", gin.H{"user": "admin", "password": "admin123"})
	require.Equal(t, 200, w.Code)
	token := decodeBody(t, w)["token"].(string)

	w = doRequest(t, r, "POST", "/api/issues", token, gin.H{
		"district": "Guntur",
		"category": "Road",
		"title":    "T",
		"location": "L",
		"details":  "D",
	})
	assert.Equal(t, 403, w.Code)
}

func TestUpdateIssueResolvedSetsResolvedDate(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{"status": "Resolved"})
	require.Equal(t, 200, w.Code, w.Body.String())

	// re-read to confirm persistence
	w = doRequest(t, r, "GET", "/api/issues/"+issueID, "", nil)
	require.Equal(t, 200, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "Resolved", data["status"])
	assert.NotEmpty(t, data["resolvedDate"])
}

func TestUpdateIssueInActionAssignsActingAdmin(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, adminID := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{"status": "In Action"})
	require.Equal(t, 200, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "In Action", data["status"])
	assert.Equal(t, adminID, data["assignedTo"])
	assert.NotEmpty(t, data["assignedDate"])
	assert.Nil(t, data["resolvedDate"])
}

func TestUpdateIssueExplicitAssigneeWins(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{
		"status":     "In Action",
		"assignedTo": "field-officer-7",
	})
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "field-officer-7", data["assignedTo"])
}

func TestUpdateIssueOtherFieldsLeaveAssignmentUntouched(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{
		"tag":      "roads",
		"priority": "High",
	})
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "roads", data["tag"])
	assert.Equal(t, "High", data["priority"])
	assert.Equal(t, "Pending", data["status"])
	assert.Nil(t, data["assignedTo"])
	assert.Nil(t, data["assignedDate"])
	assert.Nil(t, data["resolvedDate"])
}

func TestUpdateIssueResolvedIsTerminal(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{"status": "Resolved"})
	require.Equal(t, 200, w.Code)

	w = doRequest(t, r, "PUT", "/api/issues/"+issueID, admin, gin.H{"status": "Pending"})
	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "Resolved issues cannot be reopened", decodeBody(t, w)["message"])
}

func TestUpdateIssueRequiresAdminRole(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	// valid token, wrong role: 403
	w := doRequest(t, r, "PUT", "/api/issues/"+issueID, citizen, gin.H{"status": "Resolved"})
	assert.Equal(t, 403, w.Code)

	// no token at all: 401 before any role check
	w = doRequest(t, r, "PUT", "/api/issues/"+issueID, "", gin.H{"status": "Resolved"})
	assert.Equal(t, 401, w.Code)
}

func TestUpdateIssueNotFound(t *testing.T) {
	r, _, _ := setupRouter(t)
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	w := doRequest(t, r, "PUT", "/api/issues/65b000000000000000000000", admin, gin.H{"status": "Resolved"})
	assert.Equal(t, 404, w.Code)
}

func TestAddProgressUpdateAppendsInOrder(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "POST", "/api/issues/"+issueID+"/progress", admin, gin.H{"comment": "Crew dispatched"})
	require.Equal(t, 200, w.Code, w.Body.String())

	w = doRequest(t, r, "POST", "/api/issues/"+issueID+"/progress", admin, gin.H{"comment": "Repair underway", "photo": "site.jpg"})
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	updates := data["progressUpdates"].([]any)
	require.Len(t, updates, 2)

	first := updates[0].(map[string]any)
	second := updates[1].(map[string]any)
	assert.Equal(t, "Crew dispatched", first["comment"])
	assert.Equal(t, "Repair underway", second["comment"])
	assert.Equal(t, "site.jpg", second["photo"])
	assert.Equal(t, "Admin", first["updatedBy"])
	assert.NotEmpty(t, first["updatedAt"])
}

func TestAddProgressUpdateRejectsEmptyComment(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "POST", "/api/issues/"+issueID+"/progress", admin, gin.H{"comment": ""})
	assert.Equal(t, 400, w.Code)

	// history unchanged after the rejection
	w = doRequest(t, r, "GET", "/api/issues/"+issueID, "", nil)
	require.Equal(t, 200, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Empty(t, data["progressUpdates"])
}

func TestVerifyIssuePartialUpdate(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	moderator, modID := signupUser(t, r, "Mod", "mod@example.com", "9000000003", "secret3", "moderator", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID+"/verify", moderator, gin.H{
		"isDuplicate":    true,
		"duplicateOf":    "GUN-20250101-1111",
		"moderatorNotes": "same pothole as earlier report",
	})
	require.Equal(t, 200, w.Code, w.Body.String())

	// a later call touching only isVerified leaves the rest alone
	w = doRequest(t, r, "PUT", "/api/issues/"+issueID+"/verify", moderator, gin.H{"isVerified": true})
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, true, data["isVerified"])
	assert.Equal(t, true, data["isDuplicate"])
	assert.Equal(t, "GUN-20250101-1111", data["duplicateOf"])
	assert.Equal(t, "same pothole as earlier report", data["moderatorNotes"])
	assert.Equal(t, modID, data["verifiedBy"])
	assert.NotEmpty(t, data["verifiedDate"])
}

func TestVerifyIssueStampsVerifierEvenWithoutChanges(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	moderator, modID := signupUser(t, r, "Mod", "mod@example.com", "9000000003", "secret3", "moderator", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID+"/verify", moderator, gin.H{})
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, false, data["isVerified"])
	assert.Equal(t, modID, data["verifiedBy"])
	assert.NotEmpty(t, data["verifiedDate"])
}

func TestVerifyIssueAllowsAdminRole(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "PUT", "/api/issues/"+issueID+"/verify", admin, gin.H{"isVerified": true})
	assert.Equal(t, 200, w.Code)

	w = doRequest(t, r, "PUT", "/api/issues/"+issueID+"/verify", citizen, gin.H{"isVerified": true})
	assert.Equal(t, 403, w.Code)
}

func TestGetAllIssuesAnonymousSeesEverythingNewestFirst(t *testing.T) {
	r, _, issues := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")

	first := createIssue(t, r, citizen, gin.H{
		"district": "Guntur", "category": "Road", "title": "First",
		"location": "L1", "details": "D1",
	})
	second := createIssue(t, r, citizen, gin.H{
		"district": "Krishna", "category": "Water", "title": "Second",
		"location": "L2", "details": "D2",
	})

	// force distinct creation times; the API stamps both within the
	// same test instant otherwise
	bumpCreatedAt(t, issues, first["_id"].(string), -time.Minute)

	w := doRequest(t, r, "GET", "/api/issues", "", nil)
	require.Equal(t, 200, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["count"])
	data := body["data"].([]any)
	require.Len(t, data, 2)
	assert.Equal(t, second["id"], data[0].(map[string]any)["id"])
	assert.Equal(t, first["id"], data[1].(map[string]any)["id"])
}

func TestGetAllIssuesDistrictAdminSeesVerifiedDistrictOnly(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	moderator, _ := signupUser(t, r, "Mod", "mod@example.com", "9000000003", "secret3", "moderator", "")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	verified := createIssue(t, r, citizen, gin.H{
		"district": "Guntur", "category": "Road", "title": "Verified here",
		"location": "L", "details": "D",
	})
	unverified := createIssue(t, r, citizen, gin.H{
		"district": "Guntur", "category": "Road", "title": "Unverified here",
		"location": "L", "details": "D",
	})
	elsewhere := createIssue(t, r, citizen, gin.H{
		"district": "Krishna", "category": "Road", "title": "Verified elsewhere",
		"location": "L", "details": "D",
	})

	for _, id := range []string{verified["_id"].(string), elsewhere["_id"].(string)} {
		w := doRequest(t, r, "PUT", "/api/issues/"+id+"/verify", moderator, gin.H{"isVerified": true})
		require.Equal(t, 200, w.Code)
	}

	w := doRequest(t, r, "GET", "/api/issues", admin, nil)
	require.Equal(t, 200, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, verified["id"], data[0].(map[string]any)["id"])
	_ = unverified

	// citizens still see everything
	w = doRequest(t, r, "GET", "/api/issues", citizen, nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(3), decodeBody(t, w)["count"])
}

func TestGetAllIssuesExcludesDuplicatesForAdmins(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	moderator, _ := signupUser(t, r, "Mod", "mod@example.com", "9000000003", "secret3", "moderator", "")
	admin, _ := signupUser(t, r, "Admin", "admin@example.com", "9000000002", "secret2", "admin", "Guntur")

	issue := createIssue(t, r, citizen, nil)
	w := doRequest(t, r, "PUT", "/api/issues/"+issue["_id"].(string)+"/verify", moderator, gin.H{
		"isVerified":  true,
		"isDuplicate": true,
	})
	require.Equal(t, 200, w.Code)

	w = doRequest(t, r, "GET", "/api/issues", admin, nil)
	require.Equal(t, 200, w.Code)
	assert.Equal(t, float64(0), decodeBody(t, w)["count"])
}

func TestGetAllIssuesPopulatesReporterProjection(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, id := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	createIssue(t, r, citizen, nil)

	w := doRequest(t, r, "GET", "/api/issues", "", nil)
	require.Equal(t, 200, w.Code)

	data := decodeBody(t, w)["data"].([]any)
	require.Len(t, data, 1)
	reporter := data[0].(map[string]any)["userId"].(map[string]any)
	assert.Equal(t, id, reporter["_id"])
	assert.Equal(t, "Anil", reporter["name"])
	assert.Equal(t, "anil@example.com", reporter["email"])
	assert.NotContains(t, reporter, "phone")
	assert.NotContains(t, reporter, "password")
}

func TestGetIssueByIdIncludesReporterPhoneAndCountsViews(t *testing.T) {
	r, _, _ := setupRouter(t)
	citizen, _ := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	issue := createIssue(t, r, citizen, nil)
	issueID := issue["_id"].(string)

	w := doRequest(t, r, "GET", "/api/issues/"+issueID, "", nil)
	require.Equal(t, 200, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	reporter := data["userId"].(map[string]any)
	assert.Equal(t, "9000000001", reporter["phone"])
	assert.Equal(t, float64(1), data["viewCount"])

	w = doRequest(t, r, "GET", "/api/issues/"+issueID, "", nil)
	data = decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["viewCount"])
}

func TestGetIssueByIdNotFound(t *testing.T) {
	r, _, _ := setupRouter(t)

	w := doRequest(t, r, "GET", "/api/issues/65b000000000000000000000", "", nil)
	assert.Equal(t, 404, w.Code)

	w = doRequest(t, r, "GET", "/api/issues/not-a-hex-id", "", nil)
	assert.Equal(t, 400, w.Code)
}

func TestGetUserIssuesScopedToUser(t *testing.T) {
	r, _, _ := setupRouter(t)
	anil, anilID := signupUser(t, r, "Anil", "anil@example.com", "9000000001", "secret1", "", "Guntur")
	bala, _ := signupUser(t, r, "Bala", "bala@example.com", "9000000004", "secret4", "", "Krishna")

	createIssue(t, r, anil, nil)
	createIssue(t, r, bala, gin.H{
		"district": "Krishna", "category": "Water", "title": "Leak",
		"location": "L", "details": "D",
	})

	w := doRequest(t, r, "GET", "/api/issues/user/"+anilID, anil, nil)
	require.Equal(t, 200, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["count"])

	// requires a token
	w = doRequest(t, r, "GET", "/api/issues/user/"+anilID, "", nil)
	assert.Equal(t, 401, w.Code)
}
