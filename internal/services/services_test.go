package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoockh/nnsurvey/internal/events"
	"github.com/yoockh/nnsurvey/internal/logger"
	"github.com/yoockh/nnsurvey/internal/models"
	pgrepo "github.com/yoockh/nnsurvey/internal/repositories/postgres"
	"github.com/yoockh/nnsurvey/internal/storage"
	"github.com/yoockh/nnsurvey/internal/testutil"
	"github.com/yoockh/nnsurvey/internal/utils"
)

func upload(name, ct, body string) Upload {
	return Upload{
		OriginalName: name,
		Size:         int64(len(body)),
		ContentType:  ct,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func storedNames(t *testing.T, s *storage.LocalStore) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

var acme = models.SubmissionInput{CompanyName: "Acme", ContactName: "Jo", Phone: "123", Email: "a@b.com"}

type submissionFixture struct {
	svc   SubmissionService
	repo  pgrepo.SubmissionRepository
	store *storage.LocalStore
	rec   *testutil.Recorder
}

func newSubmissionFixture(t *testing.T) submissionFixture {
	db := testutil.NewDB(t)
	f := submissionFixture{
		repo:  pgrepo.NewSubmissionRepo(db),
		store: testutil.NewStore(t),
		rec:   &testutil.Recorder{},
	}
	f.svc = NewSubmissionService(f.repo, f.store, DefaultUploadLimits, f.rec, logger.Discard())
	return f
}

func TestSubmissionCreateRequiresFields(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	for _, blank := range []func(*models.SubmissionInput){
		func(in *models.SubmissionInput) { in.CompanyName = "" },
		func(in *models.SubmissionInput) { in.ContactName = "  " },
		func(in *models.SubmissionInput) { in.Phone = "" },
		func(in *models.SubmissionInput) { in.Email = "" },
	} {
		in := acme
		blank(&in)
		_, err := f.svc.Create(ctx, in, []Upload{upload("a.pdf", "application/pdf", "%PDF")})
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	}

	rows, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Empty(t, storedNames(t, f.store))
	assert.Empty(t, f.rec.Events())
}

func TestSubmissionCreateWithAttachments(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, acme, []Upload{
		upload("Deck.PDF", "application/pdf", "%PDF-1.4"),
		upload("notes.txt", "text/plain; charset=utf-8", "hello"),
	})
	require.NoError(t, err)
	require.Len(t, sub.Files, 2)

	got, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	require.Len(t, got.Files, 2)
	for _, file := range got.Files {
		assert.Equal(t, sub.ID, file.SubmissionID)
		assert.Equal(t, models.AttachmentsQuestionID, file.QuestionID)
		_, err := os.Stat(file.Filepath)
		assert.NoError(t, err)
	}
	assert.Equal(t, "text/plain", sub.Files[1].Mimetype)
	assert.EqualValues(t, 5, sub.Files[1].Size)
	assert.True(t, strings.HasSuffix(sub.Files[0].Filename, ".pdf"))
	assert.Len(t, storedNames(t, f.store), 2)

	require.Len(t, f.rec.Events(), 1)
	assert.Equal(t, events.SubmissionCreated, f.rec.Events()[0].Type)
	assert.Equal(t, sub.ID, f.rec.Events()[0].ID)
}

func TestSubmissionGetHasEmptyFiles(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	sub, err := f.svc.Create(ctx, acme, nil)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, sub.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.Files)
	assert.Empty(t, got.Files)
	assert.Equal(t, "Acme", got.CompanyName)

	_, err = f.svc.Get(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestSubmissionRejectsBadUploads(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	tooMany := make([]Upload, DefaultUploadLimits.MaxFiles+1)
	for i := range tooMany {
		tooMany[i] = upload("a.txt", "text/plain", "x")
	}
	big := upload("big.pdf", "application/pdf", "x")
	big.Size = DefaultUploadLimits.MaxFileBytes + 1

	cases := []struct {
		name    string
		uploads []Upload
		code    utils.Code
	}{
		{"extension", []Upload{upload("run.exe", "application/pdf", "x")}, utils.CodeInvalidArgument},
		{"mime", []Upload{upload("a.pdf", "application/x-msdownload", "x")}, utils.CodeInvalidArgument},
		{"count", tooMany, utils.CodeInvalidArgument},
		{"size", []Upload{upload("ok.pdf", "application/pdf", "x"), big}, utils.CodeTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, acme, tc.uploads)
			assert.True(t, utils.IsCode(err, tc.code), "got %v", err)
		})
	}
	assert.Empty(t, storedNames(t, f.store))
}

func TestSubmissionUnderreportedSizeIsCaught(t *testing.T) {
	f := newSubmissionFixture(t)
	svc := NewSubmissionService(f.repo, f.store, UploadLimits{MaxFileBytes: 4, MaxFiles: 2}, f.rec, logger.Discard())

	liar := upload("a.txt", "text/plain", "0123456789")
	liar.Size = 2
	_, err := svc.Create(context.Background(), acme, []Upload{upload("b.txt", "text/plain", "ok"), liar})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeTooLarge), "got %v", err)
	assert.Contains(t, utils.SafeMessage(err), "a.txt")
	assert.Empty(t, storedNames(t, f.store))
}

type failingSubmissionRepo struct {
	pgrepo.SubmissionRepository
}

func (failingSubmissionRepo) CreateWithFiles(context.Context, *models.Submission, []models.File) error {
	return errors.New("connection reset")
}

func TestSubmissionCreateCleansUpOnDBFailure(t *testing.T) {
	f := newSubmissionFixture(t)
	svc := NewSubmissionService(failingSubmissionRepo{f.repo}, f.store, DefaultUploadLimits, f.rec, logger.Discard())

	_, err := svc.Create(context.Background(), acme, []Upload{upload("a.pdf", "application/pdf", "%PDF")})
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))
	assert.Equal(t, "failed to save submission", utils.SafeMessage(err))
	assert.Empty(t, storedNames(t, f.store))
	assert.Empty(t, f.rec.Events())
}

func TestSubmissionDelete(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	keep, err := f.svc.Create(ctx, acme, []Upload{upload("keep.pdf", "application/pdf", "k")})
	require.NoError(t, err)
	sub, err := f.svc.Create(ctx, acme, []Upload{
		upload("a.pdf", "application/pdf", "a"),
		upload("b.png", "image/png", "b"),
	})
	require.NoError(t, err)

	// one attachment already vanished from disk
	require.NoError(t, os.Remove(sub.Files[1].Filepath))

	require.NoError(t, f.svc.Delete(ctx, sub.ID))
	_, err = os.Stat(sub.Files[0].Filepath)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, []string{keep.Files[0].Filename}, storedNames(t, f.store))

	_, err = f.svc.Get(ctx, sub.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	err = f.svc.Delete(ctx, sub.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))

	last := f.rec.Events()[len(f.rec.Events())-1]
	assert.Equal(t, events.SubmissionDeleted, last.Type)
	assert.Equal(t, sub.ID, last.ID)
}

func TestSubmissionListNewestFirst(t *testing.T) {
	f := newSubmissionFixture(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"one", "two", "three"} {
		in := acme
		in.CompanyName = name
		sub, err := f.svc.Create(ctx, in, nil)
		require.NoError(t, err)
		ids = append(ids, sub.ID)
		time.Sleep(5 * time.Millisecond)
	}

	rows, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
	for _, r := range rows {
		assert.NotNil(t, r.Files)
	}
}

type surveyFixture struct {
	surveys   SurveyService
	responses ResponseService
	store     *storage.LocalStore
	rec       *testutil.Recorder
}

func newSurveyFixture(t *testing.T) surveyFixture {
	db := testutil.NewDB(t)
	sr := pgrepo.NewSurveyRepo(db)
	f := surveyFixture{store: testutil.NewStore(t), rec: &testutil.Recorder{}}
	f.surveys = NewSurveyService(sr, f.store, f.rec, logger.Discard())
	f.responses = NewResponseService(sr, pgrepo.NewResponseRepo(db), f.store, DefaultUploadLimits, f.rec, logger.Discard())
	return f
}

var partnerSurvey = models.SurveyInput{
	Title: " Partner intake ",
	Questions: []models.Question{
		{Type: models.QuestionText, Label: "Name", Required: true},
		{Type: models.QuestionRadio, Label: "Size", Options: []string{"small", "large"}},
		{Type: models.QuestionCheckbox, Label: "Areas", Options: []string{"AI", "IoT", "Cloud"}},
		{Type: models.QuestionFile, Label: "Deck"},
	},
}

func TestSurveyCreate(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()

	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)
	assert.Equal(t, "Partner intake", sv.Title)
	assert.True(t, sv.IsActive)
	require.Len(t, sv.Questions, 4)
	assert.EqualValues(t, 1, sv.Questions[0].ID)
	assert.EqualValues(t, 4, sv.Questions[3].ID)

	got, err := f.surveys.Get(ctx, sv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"AI", "IoT", "Cloud"}, got.Questions[2].Options)

	bad := []models.SurveyInput{
		{Title: "", Questions: []models.Question{}},
		{Title: "t"},
		{Title: "t", Questions: []models.Question{{Type: models.QuestionRadio, Label: "x", Options: []string{"only"}}}},
		{Title: "t", Questions: []models.Question{{Type: "slider", Label: "x"}}},
	}
	for _, in := range bad {
		_, err := f.surveys.Create(ctx, in)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "input %+v", in)
	}

	list, err := f.surveys.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSurveyStatus(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()

	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)

	require.NoError(t, f.surveys.SetStatus(ctx, sv.ID, false))
	_, err = f.responses.Submit(ctx, sv.ID, `["Jo"]`, nil)
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))

	require.NoError(t, f.surveys.SetStatus(ctx, sv.ID, true))
	_, err = f.responses.Submit(ctx, sv.ID, `["Jo"]`, nil)
	assert.NoError(t, err)

	assert.True(t, utils.IsCode(f.surveys.SetStatus(ctx, "missing", true), utils.CodeNotFound))
}

func TestResponseSubmit(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()
	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)

	r, err := f.responses.Submit(ctx, sv.ID, `{"0":"Jo","1":"large","2":["AI","Cloud"]}`, map[int][]Upload{
		3: {upload("deck.pdf", "application/pdf", "%PDF")},
	})
	require.NoError(t, err)
	require.Len(t, r.Answers, 4)
	assert.Equal(t, "Jo", r.Answers[0].Text)
	assert.Equal(t, "large", r.Answers[1].Choice)
	assert.Equal(t, []string{"AI", "Cloud"}, r.Answers[2].Choices)
	require.Len(t, r.Answers[3].Files, 1)
	assert.Equal(t, "deck.pdf", r.Answers[3].Files[0].OriginalName)
	assert.Len(t, storedNames(t, f.store), 1)

	list, err := f.responses.List(ctx, sv.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, r.ID, list[0].ID)

	_, err = f.responses.List(ctx, "missing")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestResponseSubmitRejectsBeforeStoring(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()
	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)

	deck := map[int][]Upload{3: {upload("deck.pdf", "application/pdf", "%PDF")}}
	cases := []struct {
		name    string
		answers string
		uploads map[int][]Upload
	}{
		{"required missing", `["", "small"]`, deck},
		{"radio not an option", `["Jo", "medium"]`, deck},
		{"checkbox not a subset", `["Jo", null, ["AI", "Quantum"]]`, deck},
		{"files on text question", `["Jo"]`, map[int][]Upload{0: {upload("a.pdf", "application/pdf", "x")}}},
		{"files past the last question", `["Jo"]`, map[int][]Upload{9: {upload("a.pdf", "application/pdf", "x")}}},
		{"too many answers", `["Jo", null, null, null, "extra"]`, nil},
		{"not json", `Jo`, nil},
		{"bad file type", `["Jo"]`, map[int][]Upload{3: {upload("a.exe", "application/pdf", "x")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.responses.Submit(ctx, sv.ID, tc.answers, tc.uploads)
			assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "got %v", err)
		})
	}
	assert.Empty(t, storedNames(t, f.store))

	list, err := f.responses.List(ctx, sv.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.responses.Submit(ctx, "missing", `[]`, nil)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestResponseDelete(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()
	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)

	r, err := f.responses.Submit(ctx, sv.ID, `["Jo"]`, map[int][]Upload{3: {upload("deck.pdf", "application/pdf", "%PDF")}})
	require.NoError(t, err)

	err = f.responses.Delete(ctx, "other-survey", r.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.Len(t, storedNames(t, f.store), 1)

	require.NoError(t, f.responses.Delete(ctx, sv.ID, r.ID))
	assert.Empty(t, storedNames(t, f.store))

	last := f.rec.Events()[len(f.rec.Events())-1]
	assert.Equal(t, events.ResponseDeleted, last.Type)
	assert.Equal(t, sv.ID, last.SurveyID)
}

func TestSurveyDeleteRemovesResponseFiles(t *testing.T) {
	f := newSurveyFixture(t)
	ctx := context.Background()
	sv, err := f.surveys.Create(ctx, partnerSurvey)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := f.responses.Submit(ctx, sv.ID, `["Jo"]`, map[int][]Upload{3: {upload("deck.pdf", "application/pdf", "%PDF")}})
		require.NoError(t, err)
	}
	assert.Len(t, storedNames(t, f.store), 2)

	require.NoError(t, f.surveys.Delete(ctx, sv.ID))
	assert.Empty(t, storedNames(t, f.store))

	_, err = f.surveys.Get(ctx, sv.ID)
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
	assert.True(t, utils.IsCode(f.surveys.Delete(ctx, sv.ID), utils.CodeNotFound))
}

func TestQRDataURI(t *testing.T) {
	qr := NewQRService(128)

	uri, err := qr.DataURI("https://forms.example.com/")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "data:image/png;base64,"))

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))

	_, err = qr.DataURI("  ")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestAuthLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := utils.HashPassword("hunter2")
	require.NoError(t, err)

	_, _, err = NewAuthService("", hash, time.Hour).Login(ctx, "hunter2")
	assert.True(t, utils.IsCode(err, utils.CodeUnavailable))

	svc := NewAuthService("s3cret", hash, time.Hour)
	_, _, err = svc.Login(ctx, "wrong")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	tok, exp, err := svc.Login(ctx, "hunter2")
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := utils.ParseAdminToken("s3cret", tok)
	require.NoError(t, err)
	assert.Equal(t, utils.RoleAdmin, claims.Role)
}
