package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sonuk-07/NeuroAI/models"
)

// recordingMailer captures sends; optionally fails every delivery.
type recordingMailer struct {
	sent []string
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, subject, _ string, to ...string) error {
	m.sent = append(m.sent, to...)
	if m.fail {
		return errors.New("smtp down")
	}
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DoctorProfile{},
		&models.PatientProfile{},
		&models.ImageRecord{},
		&models.RecommendationRequest{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createDoctor(t *testing.T, db *gorm.DB, username string) *models.DoctorProfile {
	t.Helper()
	user := createUser(t, db, username, models.RoleDoctor)
	profile := models.DoctorProfile{UserID: user.ID}
	require.NoError(t, db.Create(&profile).Error)
	return &profile
}

func createImage(t *testing.T, db *gorm.DB, userID uint, label string) *models.ImageRecord {
	t.Helper()
	record := models.ImageRecord{
		UserID:        userID,
		Filename:      "scan.jpg",
		Path:          "/tmp/scan.jpg",
		RequestStatus: models.StatusNone,
	}
	if label != "" {
		record.PredictedLabel = &label
	}
	require.NoError(t, db.Create(&record).Error)
	return &record
}

func reloadImage(t *testing.T, db *gorm.DB, id uint) *models.ImageRecord {
	t.Helper()
	var record models.ImageRecord
	require.NoError(t, db.First(&record, id).Error)
	return &record
}

func TestRequestCreatesRequestAndAdvancesStatus(t *testing.T) {
	db := newTestDB(t)
	mail := &recordingMailer{}
	svc := NewService(db, mail, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	doctor := createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)

	assert.Equal(t, doctor.ID, request.DoctorProfileID)
	require.NotNil(t, request.PredictedLabel)
	assert.Equal(t, "glioma", *request.PredictedLabel)
	assert.False(t, request.Reviewed)

	assert.Equal(t, models.StatusRequested, reloadImage(t, db, image.ID).RequestStatus)
	assert.Equal(t, []string{"drbob@example.com"}, mail.sent)
}

func TestRequestIsBlockedWhileRequested(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	_, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)

	_, err = svc.Request(context.Background(), patient.ID, image.ID)
	assert.ErrorIs(t, err, ErrAlreadyRequested)

	var count int64
	db.Model(&models.RecommendationRequest{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestRequestNeverRegressesReviewedStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")
	require.NoError(t, db.Model(image).Update("request_status", models.StatusReviewed).Error)

	_, err := svc.Request(context.Background(), patient.ID, image.ID)
	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	assert.Equal(t, models.StatusReviewed, reloadImage(t, db, image.ID).RequestStatus)
}

func TestRequestWithoutDoctorChangesNothing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	image := createImage(t, db, patient.ID, "notumor")

	_, err := svc.Request(context.Background(), patient.ID, image.ID)
	assert.ErrorIs(t, err, ErrNoDoctor)

	assert.Equal(t, models.StatusNone, reloadImage(t, db, image.ID).RequestStatus)
	var count int64
	db.Model(&models.RecommendationRequest{}).Count(&count)
	assert.Zero(t, count)
}

func TestRequestEnforcesImageOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	intruder := createUser(t, db, "mallory", models.RolePatient)
	createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	_, err := svc.Request(context.Background(), intruder.ID, image.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMailFailureDoesNotRollBackRequest(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{fail: true}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)
	assert.NotZero(t, request.ID)
	assert.Equal(t, models.StatusRequested, reloadImage(t, db, image.ID).RequestStatus)
}

func TestRespondIsAtomic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	doctor := createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Respond(doctor.UserID, request.ID, "Please schedule a follow-up."))

	updated := reloadImage(t, db, image.ID)
	assert.Equal(t, models.StatusReviewed, updated.RequestStatus)
	require.NotNil(t, updated.DoctorComment)
	assert.Equal(t, "Please schedule a follow-up.", *updated.DoctorComment)

	var reloaded models.RecommendationRequest
	require.NoError(t, db.First(&reloaded, request.ID).Error)
	assert.True(t, reloaded.Reviewed)
}

func TestRespondEnforcesDoctorOwnership(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	createDoctor(t, db, "drbob")
	other := createDoctor(t, db, "dreve")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)
	// FirstAvailable assigned drbob, so dreve must not be able to respond.
	require.NotEqual(t, other.ID, request.DoctorProfileID)

	err = svc.Respond(other.UserID, request.ID, "mine now")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, models.StatusRequested, reloadImage(t, db, image.ID).RequestStatus)
}

func TestEditOverwritesCommentWithoutTouchingStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	doctor := createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Respond(doctor.UserID, request.ID, "first pass"))

	require.NoError(t, svc.Edit(doctor.UserID, request.ID, "corrected reading"))

	updated := reloadImage(t, db, image.ID)
	assert.Equal(t, models.StatusReviewed, updated.RequestStatus)
	require.NotNil(t, updated.DoctorComment)
	assert.Equal(t, "corrected reading", *updated.DoctorComment)
}

func TestDeleteRemovesRequestOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	doctor := createDoctor(t, db, "drbob")
	image := createImage(t, db, patient.ID, "glioma")

	request, err := svc.Request(context.Background(), patient.ID, image.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Respond(doctor.UserID, request.ID, "all clear"))

	require.NoError(t, svc.Delete(doctor.UserID, request.ID))

	var count int64
	db.Model(&models.RecommendationRequest{}).Count(&count)
	assert.Zero(t, count)

	// The record keeps its terminal, request-less reviewed state.
	updated := reloadImage(t, db, image.ID)
	assert.Equal(t, models.StatusReviewed, updated.RequestStatus)
	require.NotNil(t, updated.DoctorComment)
	assert.Equal(t, "all clear", *updated.DoctorComment)
}

func TestPendingExcludesReviewedRequests(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &recordingMailer{}, FirstAvailable{})

	patient := createUser(t, db, "alice", models.RolePatient)
	doctor := createDoctor(t, db, "drbob")
	first := createImage(t, db, patient.ID, "glioma")
	second := createImage(t, db, patient.ID, "pituitary")

	r1, err := svc.Request(context.Background(), patient.ID, first.ID)
	require.NoError(t, err)
	r2, err := svc.Request(context.Background(), patient.ID, second.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Respond(doctor.UserID, r1.ID, "done"))

	pending, err := svc.Pending(doctor.UserID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, r2.ID, pending[0].ID)

	history, err := svc.History(doctor.UserID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestLeastLoadedPrefersIdleDoctor(t *testing.T) {
	db := newTestDB(t)

	busy := createDoctor(t, db, "drbusy")
	idle := createDoctor(t, db, "dridle")

	patient := createUser(t, db, "alice", models.RolePatient)
	image := createImage(t, db, patient.ID, "glioma")
	require.NoError(t, db.Create(&models.RecommendationRequest{
		ImageRecordID:   image.ID,
		PatientID:       patient.ID,
		DoctorProfileID: busy.ID,
	}).Error)

	doctor, err := LeastLoaded{}.Assign(db, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, idle.ID, doctor.ID)
}

func TestPreferredUsesBoundDoctor(t *testing.T) {
	db := newTestDB(t)

	createDoctor(t, db, "drfirst")
	bound := createDoctor(t, db, "drbound")

	patient := createUser(t, db, "alice", models.RolePatient)
	require.NoError(t, db.Create(&models.PatientProfile{
		UserID:   patient.ID,
		DoctorID: &bound.ID,
	}).Error)

	doctor, err := Preferred{Fallback: FirstAvailable{}}.Assign(db, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, bound.ID, doctor.ID)
}

func TestPreferredFallsBackWithoutBinding(t *testing.T) {
	db := newTestDB(t)

	first := createDoctor(t, db, "drfirst")
	createDoctor(t, db, "drsecond")
	patient := createUser(t, db, "alice", models.RolePatient)

	doctor, err := Preferred{Fallback: FirstAvailable{}}.Assign(db, patient.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, doctor.ID)
}
