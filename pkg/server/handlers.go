package server

import (
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sensei/pkg/model"
	"github.com/m-mizutani/sensei/pkg/usecase/ingest"
)

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to sensei"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Content string `json:"content"`
}

type chatResponse struct {
	Answer      string   `json:"answer"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	reply, err := s.uc.Chat.Send(r.Context(), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Answer:      reply.Answer.Text,
		Suggestions: reply.Suggestions,
	})
}

type messageRequest struct {
	Sender  model.Sender `json:"sender"`
	Content string       `json:"content"`
}

func (s *Server) addMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := model.NewMessage(req.Sender, req.Content)
	if err != nil {
		writeError(w, r, goerr.Wrap(err, "invalid message", goerr.V("sender", req.Sender)))
		return
	}
	if err := s.uc.Messages.PutMessage(r.Context(), msg); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

type ingestTextRequest struct {
	Text             string `json:"text"`
	SourceIdentifier string `json:"source_identifier"`
}

type ingestResponse struct {
	Status         string `json:"status"`
	ChunksIngested int    `json:"chunks_ingested"`
	Source         string `json:"source"`
}

func (s *Server) ingestText(w http.ResponseWriter, r *http.Request) {
	var req ingestTextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SourceIdentifier == "" {
		req.SourceIdentifier = ingest.DefaultTextSource
	}

	n, err := s.uc.Ingest.Text(r.Context(), req.Text, req.SourceIdentifier)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:         "success",
		ChunksIngested: n,
		Source:         req.SourceIdentifier,
	})
}

func (s *Server) ingestPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, goerr.Wrap(err, "file is required", goerr.T(model.ErrTagBadRequest)))
		return
	}
	defer file.Close()

	n, err := s.uc.Ingest.PDF(r.Context(), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		Status:         "success",
		ChunksIngested: n,
		Source:         header.Filename,
	})
}

type topicResponse struct {
	ID          model.TopicID `json:"id"`
	Topic       string        `json:"topic"`
	Description string        `json:"description"`
}

func (s *Server) listTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.uc.Topic.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := make([]topicResponse, len(topics))
	for i, t := range topics {
		resp[i] = topicResponse{ID: t.ID, Topic: t.Topic, Description: t.Description}
	}
	writeJSON(w, http.StatusOK, resp)
}

type startAssessmentRequest struct {
	Topic string `json:"topic"`
}

type startAssessmentResponse struct {
	QuizID   model.QuizID `json:"quiz_id"`
	QuizData *model.Quiz  `json:"quiz_data"`
}

func (s *Server) startAssessment(w http.ResponseWriter, r *http.Request) {
	var req startAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	quiz, err := s.uc.Quiz.Start(r.Context(), req.Topic)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, startAssessmentResponse{QuizID: quiz.ID, QuizData: quiz})
}

type answerAssessmentRequest struct {
	QuestionID model.QuestionID `json:"question_id"`
	Answer     string           `json:"answer"`
}

func (s *Server) answerAssessment(w http.ResponseWriter, r *http.Request) {
	var req answerAssessmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.QuestionID == "" {
		writeError(w, r, goerr.New("question_id is required", goerr.T(model.ErrTagBadRequest)))
		return
	}

	result, err := s.uc.Quiz.Answer(r.Context(), req.QuestionID, req.Answer)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
