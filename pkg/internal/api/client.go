package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/glazor-app/glazor-cli/pkg/internal/models"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
)

// Client talks to the Glazor REST API. One method per server capability, no
// automatic retries, no request timeouts; a call in flight cannot be aborted.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type registerForm struct {
	Name     string `validate:"required"`
	Phone    string `validate:"required"`
	Password string `validate:"required"`
}

type loginForm struct {
	Phone    string `validate:"required"`
	Password string `validate:"required"`
}

// Register creates an account via multipart form. The returned user may be
// nil even on success when the server wants a separate login afterwards.
func (c *Client) Register(name, phone, password, avatarPath string) (*models.User, error) {
	if err := checkForm(registerForm{Name: name, Phone: phone, Password: password}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("name", name)
	form.WriteField("phone", phone)
	form.WriteField("password", password)
	if len(avatarPath) > 0 {
		if err := attachFile(form, "avatar", avatarPath); err != nil {
			return nil, validationErr(fmt.Sprintf("cannot read avatar file: %v", err))
		}
	}
	form.Close()

	resp, err := c.http.Post(c.baseURL+"/api/register", form.FormDataContentType(), &buf)
	if err != nil {
		return nil, networkErr(err)
	}
	defer resp.Body.Close()

	// The server answers 200 even for rejections and flags them in the body.
	var data struct {
		Success bool         `json:"success"`
		Message string       `json:"message"`
		User    *models.User `json:"user"`
	}
	if err := decodeBody(resp.Body, &data); err != nil {
		return nil, parseErr(err)
	}
	if !data.Success {
		return nil, serverErr(defaultMessage(data.Message, "registration failed"))
	}

	log.Debug().Str("phone", phone).Msg("Registered a new account.")
	return data.User, nil
}

// Login exchanges credentials for the account record.
func (c *Client) Login(phone, password string) (models.User, error) {
	var user models.User
	if err := checkForm(loginForm{Phone: phone, Password: password}); err != nil {
		return user, err
	}

	resp, err := c.postJSON("/api/login", map[string]any{
		"phone":    phone,
		"password": password,
	})
	if err != nil {
		return user, networkErr(err)
	}
	defer resp.Body.Close()

	var data struct {
		Message string       `json:"message"`
		User    *models.User `json:"user"`
	}
	if err := decodeBody(resp.Body, &data); err != nil {
		return user, serverErr("the server returned a malformed response")
	}
	if resp.StatusCode != fiber.StatusOK || data.User == nil {
		return user, authErr(defaultMessage(data.Message, "invalid phone or password"))
	}

	log.Debug().Str("user", data.User.ID).Msg("Logged in.")
	return *data.User, nil
}

// ListPosts fetches the whole feed, oldest first as the server stores it.
func (c *Client) ListPosts() ([]models.Post, error) {
	url := c.baseURL + "/api/posts"
	log.Debug().Str("url", url).Msg("Fetching the feed...")

	resp, err := c.http.Get(url)
	if err != nil {
		return nil, networkErr(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkErr(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		return nil, serverErr(fmt.Sprintf("unexpected status code: %d", resp.StatusCode))
	}

	var posts []models.Post
	if err := jsoniter.Unmarshal(body, &posts); err != nil {
		return nil, parseErr(err)
	}
	return posts, nil
}

// CreatePost uploads a photo as a new post owned by the given user.
func (c *Client) CreatePost(photoPath, userID string) error {
	if len(photoPath) == 0 {
		return validationErr("pick a photo first")
	}
	if len(userID) == 0 {
		return validationErr("log in before posting")
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := attachFile(form, "photo", photoPath); err != nil {
		return validationErr(fmt.Sprintf("cannot read photo file: %v", err))
	}
	form.WriteField("userId", userID)
	form.Close()

	resp, err := c.http.Post(c.baseURL+"/api/posts", form.FormDataContentType(), &buf)
	if err != nil {
		return networkErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		return serverErr(defaultMessage(readMessage(resp.Body), "failed to upload the post"))
	}
	return nil
}

// Like records the current user's like on a post. Fire-and-confirm: the
// response carries no body worth reading on success.
func (c *Client) Like(postID, userID string) error {
	resp, err := c.postJSON(fmt.Sprintf("/api/posts/%s/like", postID), map[string]any{
		"userId": userID,
	})
	if err != nil {
		return networkErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		return serverErr("failed to send the like")
	}
	return nil
}

// Comment appends a comment to a post.
func (c *Client) Comment(postID, userID, text string) error {
	if len(strings.TrimSpace(text)) == 0 {
		return validationErr("enter a comment text")
	}

	resp, err := c.postJSON(fmt.Sprintf("/api/posts/%s/comment", postID), map[string]any{
		"userId": userID,
		"text":   text,
	})
	if err != nil {
		return networkErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		return serverErr(defaultMessage(readMessage(resp.Body), "failed to send the comment"))
	}
	return nil
}

func (c *Client) postJSON(path string, payload map[string]any) (*http.Response, error) {
	body, _ := jsoniter.Marshal(payload)

	req, err := http.NewRequest("POST", c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}

func attachFile(form *multipart.Writer, field, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := form.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, file)
	return err
}

func decodeBody(body io.Reader, out any) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	return jsoniter.Unmarshal(raw, out)
}

// readMessage pulls the {message} field out of an error body, if any.
func readMessage(body io.Reader) string {
	var data struct {
		Message string `json:"message"`
	}
	if err := decodeBody(body, &data); err != nil {
		return ""
	}
	return data.Message
}

func defaultMessage(message, fallback string) string {
	if len(message) > 0 {
		return message
	}
	return fallback
}
