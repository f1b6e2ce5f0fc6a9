package kubernetes

import (
	"context"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/opscorehq/opscore/pkg/config"
	opserrors "github.com/opscorehq/opscore/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPodsReportsReadyCounts(t *testing.T) {
	cs := fake.NewSimpleClientset(&corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: "default"},
		Status: corev1.PodStatus{
			Phase:              corev1.PodRunning,
			ContainerStatuses:  []corev1.ContainerStatus{{Ready: true}, {Ready: false}},
		},
	})
	a := New()
	a.clients["|"] = cs

	pods, err := a.ListPods(context.Background(), config.ClusterEntry{}, "default")
	require.NoError(t, err)
	require.Len(t, pods, 1)
	assert.Equal(t, "web-1", pods[0].Name)
	assert.Equal(t, "1/2", pods[0].Ready)
}

func TestGetPodNotFoundIsClassified(t *testing.T) {
	cs := fake.NewSimpleClientset()
	a := New()
	a.clients["|"] = cs

	_, err := a.GetPod(context.Background(), config.ClusterEntry{}, "default", "ghost")
	require.Error(t, err)
	sub, ok := opserrors.IsAdapter(err)
	require.True(t, ok)
	assert.Equal(t, opserrors.SubKindNotFound, sub)
}

func TestScaleDeploymentPatchesReplicas(t *testing.T) {
	cs := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
	})
	a := New()
	a.clients["|"] = cs

	err := a.ScaleDeployment(context.Background(), config.ClusterEntry{}, "default", "web", 3)
	require.NoError(t, err)

	dep, err := cs.AppsV1().Deployments("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	require.NotNil(t, dep.Spec.Replicas)
	assert.Equal(t, int32(3), *dep.Spec.Replicas)
}

func TestRestartDeploymentPatchesAnnotation(t *testing.T) {
	cs := fake.NewSimpleClientset(&appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "web", Namespace: "default"},
	})
	a := New()
	a.clients["|"] = cs

	err := a.RestartDeployment(context.Background(), config.ClusterEntry{}, "default", "web")
	require.NoError(t, err)

	dep, err := cs.AppsV1().Deployments("default").Get(context.Background(), "web", metav1.GetOptions{})
	require.NoError(t, err)
	assert.Contains(t, dep.Spec.Template.Annotations, "opscore.io/restartedAt")
}

func TestClassifyK8sErrorMapsKinds(t *testing.T) {
	gr := schema.GroupResource{Resource: "deployments"}
	notFound := classifyK8sError(apierrors.NewNotFound(gr, "web"), "web")
	sub, ok := opserrors.IsAdapter(notFound)
	require.True(t, ok)
	assert.Equal(t, opserrors.SubKindNotFound, sub)

	forbidden := classifyK8sError(apierrors.NewForbidden(gr, "web", assertErr{}), "web")
	sub, ok = opserrors.IsAdapter(forbidden)
	require.True(t, ok)
	assert.Equal(t, opserrors.SubKindUnauthorized, sub)
}

type assertErr struct{}

func (assertErr) Error() string { return "denied" }
